//go:build !libpostal

package crosscheck

// Available reports whether libpostal is linked in
const Available = false

func libpostalParse(string) ([]Component, error) {
	return nil, ErrUnavailable
}
