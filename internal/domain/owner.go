package domain

// CartOwner is the resolved identity a cart belongs to: an authenticated
// customer or an anonymous browsing session. Exactly one field is set.
type CartOwner struct {
	CustomerID string
	SessionID  string
}

func CustomerOwner(id string) CartOwner { return CartOwner{CustomerID: id} }

func SessionOwner(id string) CartOwner { return CartOwner{SessionID: id} }

func (o CartOwner) IsAnonymous() bool { return o.CustomerID == "" }

func (o CartOwner) IsZero() bool { return o.CustomerID == "" && o.SessionID == "" }

// Key returns a stable string key for cache lookups.
func (o CartOwner) Key() string {
	if o.CustomerID != "" {
		return "customer:" + o.CustomerID
	}
	return "session:" + o.SessionID
}
