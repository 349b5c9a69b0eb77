package entity

// Client is an advertising customer. Username is unique within a backend.
// Email and Password together form the natural key used to re-identify a
// client across backends that do not share an identifier space.
type Client struct {
	ID          string
	Username    string
	Firstname   string
	Lastname    string
	PhoneNumber string
	Email       string
	Password    string
}

// Clone returns an independent copy of the client.
func (c *Client) Clone() *Client {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
