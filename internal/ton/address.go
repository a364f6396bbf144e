package ton

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

var ErrInvalidAddress = errors.New("invalid TON address")

// NormalizeAddress принимает user-friendly (EQ.../UQ...) или raw (0:hex) адрес
// и возвращает его non-bounceable user-friendly форму, в которой он хранится.
func NormalizeAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	var (
		addr *address.Address
		err  error
	)
	if strings.Contains(s, ":") {
		addr, err = address.ParseRawAddr(s)
	} else {
		addr, err = address.ParseAddr(s)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	// Только basechain и masterchain
	if wc := addr.Workchain(); wc != 0 && wc != -1 {
		return "", fmt.Errorf("%w: unsupported workchain %d", ErrInvalidAddress, wc)
	}

	addr.SetBounce(false)
	return addr.String(), nil
}
