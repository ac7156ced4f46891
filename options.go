package regress

// OutlierOptions configures the Tukey fences used to flag residual outliers.
type OutlierOptions struct {
	LowerPercentile float64
	UpperPercentile float64
	TukeyFactor     float64
}

func NewDefaultOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		LowerPercentile: 0.25,
		UpperPercentile: 0.75,
		TukeyFactor:     1.5,
	}
}

// DiagnosticOptions configures Diagnose.
type DiagnosticOptions struct {
	OutlierOptions *OutlierOptions

	// SkipVIF disables variance inflation factors, which cost one regression per column
	SkipVIF bool
}

func NewDefaultDiagnosticOptions() *DiagnosticOptions {
	return &DiagnosticOptions{
		OutlierOptions: NewDefaultOutlierOptions(),
	}
}
