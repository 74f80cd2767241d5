package enums

import "fmt"

// CartItemAction is the mutation verb applied to a cart line.
type CartItemAction string

const (
	CartItemActionIncrease CartItemAction = "increase"
	CartItemActionDecrease CartItemAction = "decrease"
	CartItemActionRemove   CartItemAction = "remove"
)

var validCartItemActions = []CartItemAction{
	CartItemActionIncrease,
	CartItemActionDecrease,
	CartItemActionRemove,
}

// String implements fmt.Stringer.
func (c CartItemAction) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartItemAction.
func (c CartItemAction) IsValid() bool {
	for _, candidate := range validCartItemActions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartItemAction converts raw input into a CartItemAction.
func ParseCartItemAction(value string) (CartItemAction, error) {
	for _, candidate := range validCartItemActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart item action %q", value)
}
