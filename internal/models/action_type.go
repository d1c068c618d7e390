package models

// ActionType represents the verb a route step performs against the browser.
// The set is closed: dispatch is exhaustive over these values and anything
// else is rejected as an unsupported action rather than silently ignored.
type ActionType string

const (
	ActionNavigate        ActionType = "navigate"
	ActionClick           ActionType = "click"
	ActionFill            ActionType = "fill"
	ActionSelect          ActionType = "select"
	ActionWaitVisible     ActionType = "wait_visible"
	ActionWaitHidden      ActionType = "wait_hidden"
	ActionAssertText      ActionType = "assert_text"
	ActionAssertURL       ActionType = "assert_url"
	ActionAssertChecked   ActionType = "assert_checked"
	ActionAssertUnchecked ActionType = "assert_unchecked"
	ActionScreenshot      ActionType = "screenshot"
	ActionScroll          ActionType = "scroll"
	ActionKeypress        ActionType = "keypress"
)

// IsValid checks if the ActionType is a known, valid verb
func (a ActionType) IsValid() bool {
	switch a {
	case ActionNavigate, ActionClick, ActionFill, ActionSelect,
		ActionWaitVisible, ActionWaitHidden,
		ActionAssertText, ActionAssertURL, ActionAssertChecked, ActionAssertUnchecked,
		ActionScreenshot, ActionScroll, ActionKeypress:
		return true
	}
	return false
}

// String returns the string representation of the ActionType
func (a ActionType) String() string {
	return string(a)
}

// RequiresElement reports whether the verb targets a page element and must
// run through the element resolver before dispatch. Navigation and URL
// assertions bypass the resolver; wait verbs carry their own selector waits.
func (a ActionType) RequiresElement() bool {
	switch a {
	case ActionClick, ActionFill, ActionSelect,
		ActionAssertText, ActionAssertChecked, ActionAssertUnchecked:
		return true
	}
	return false
}

// AllActionTypes returns a slice of all valid ActionType values
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionNavigate,
		ActionClick,
		ActionFill,
		ActionSelect,
		ActionWaitVisible,
		ActionWaitHidden,
		ActionAssertText,
		ActionAssertURL,
		ActionAssertChecked,
		ActionAssertUnchecked,
		ActionScreenshot,
		ActionScroll,
		ActionKeypress,
	}
}
