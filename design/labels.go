package design

// InterceptLabel is the name given to the bias column when an intercept is fitted.
const InterceptLabel = "intercept"

// Labels tracks the column names of a design matrix and their index locations that match up
// with the ordering of the coefficients assigned to each column.
type Labels struct {
	idx       map[string]int
	labels    []string
	intercept bool
}

// NewLabels orders the labels the way the design matrix lays out its columns. The input is
// expected to already be sorted.
func NewLabels(sorted []string, intercept bool) *Labels {
	labels := make([]string, 0, len(sorted)+1)
	if intercept {
		labels = append(labels, InterceptLabel)
	}
	labels = append(labels, sorted...)

	idx := make(map[string]int, len(labels))
	for i, label := range labels {
		if _, exists := idx[label]; exists {
			continue
		}
		idx[label] = i
	}
	return &Labels{
		idx:       idx,
		labels:    labels,
		intercept: intercept,
	}
}

func (l *Labels) Len() int {
	if l == nil {
		return 0
	}
	return len(l.labels)
}

// Labels returns a copy of all column names in matrix order.
func (l *Labels) Labels() []string {
	if l == nil {
		return nil
	}
	labels := make([]string, len(l.labels))
	copy(labels, l.labels)
	return labels
}

// Features returns the independent variable names without the bias label.
func (l *Labels) Features() []string {
	labels := l.Labels()
	if l != nil && l.intercept {
		return labels[1:]
	}
	return labels
}

func (l *Labels) Intercept() bool {
	return l != nil && l.intercept
}

func (l *Labels) Index(label string) (int, bool) {
	if l == nil {
		return -1, false
	}
	if idx, exists := l.idx[label]; exists {
		return idx, exists
	}
	return -1, false
}

// Named keys a positional slice by column name. Extra values beyond the label count are
// dropped and missing values are left out.
func (l *Labels) Named(values []float64) map[string]float64 {
	out := make(map[string]float64, l.Len())
	for i, label := range l.Labels() {
		if i >= len(values) {
			break
		}
		out[label] = values[i]
	}
	return out
}
