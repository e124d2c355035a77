package reporting

import "errors"

var (
	errNoHospital   = errors.New("caller is not attached to a hospital")
	errUnknownScope = errors.New("measure has no scope")
)
