package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ID is a server-assigned identifier. The backend may send it as a JSON
// string or number; it is always kept as a string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Int64 returns the numeric form of the id when it has one.
func (id ID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

type User struct {
	ID      ID              `json:"id"`
	Email   string          `json:"email"`
	Balance decimal.Decimal `json:"balance"`
}

// Session is the authenticated identity plus its token pair.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         User
}

func (s *Session) Active() bool {
	return s != nil && s.AccessToken != ""
}
