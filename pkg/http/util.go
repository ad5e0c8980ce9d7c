package http

import (
	"time"

	"AstroTransits/pkg/util"
)

// ParseDateParam parses an ISO-8601 query value, reporting failures as a 400
// naming the parameter.
func ParseDateParam(name, value string) (time.Time, error) {
	t, err := util.ParseISO(value)
	if err != nil {
		return time.Time{}, BadRequestErrorf("Invalid '%s' parameter: %v", name, err).
			WithField(name).
			WithError(err)
	}
	return t, nil
}
