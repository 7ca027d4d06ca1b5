package stat

// WidthError is returned when the configured bit widths cannot be evaluated exactly
type WidthError struct {
	Msg string
}

func (e WidthError) Error() string {
	return e.Msg
}
