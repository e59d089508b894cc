package params

// QueryParams carries common list-endpoint pagination values.
type QueryParams struct {
	PageNumber int
	PageSize   int
}

// Normalize clamps the params to sane defaults.
func (p QueryParams) Normalize() QueryParams {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 || p.PageSize > 100 {
		p.PageSize = 20
	}
	return p
}
