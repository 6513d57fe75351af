package service

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/wlanshim/twt-go/pkg/interaction"
	"github.com/wlanshim/twt-go/pkg/twt"
	"github.com/wlanshim/twt-go/pkg/wire"
)

// Errno maps err to the negative errno returned by Handle. A nil error
// maps to 0.
func Errno(err error) int {
	var (
		parseErr *twt.ParseError
		transErr *interaction.TransportError
	)
	switch {
	case err == nil:
		return 0
	case errors.As(err, &parseErr):
		return -int(unix.EINVAL)
	case errors.Is(err, ErrCapabilityUnsupported):
		return -int(unix.EOPNOTSUPP)
	case errors.Is(err, ErrNoInterface):
		return -int(unix.ENODEV)
	case errors.Is(err, wire.ErrMalformedMessage),
		errors.Is(err, wire.ErrWidthMismatch),
		errors.Is(err, twt.ErrMissingField),
		errors.Is(err, twt.ErrUnknownOperation):
		return -int(unix.EBADMSG)
	case errors.Is(err, twt.ErrResourceExhausted):
		return -int(unix.ENOSPC)
	case errors.As(err, &transErr):
		if transErr.Code <= 0 {
			return -int(unix.EIO)
		}
		return -transErr.Code
	default:
		return -interaction.Errno(err)
	}
}
