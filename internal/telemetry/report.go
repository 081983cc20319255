package telemetry

import "strings"

// Section labels in report order.
const (
	LabelLoad         = "Average load"
	LabelBlockDevices = "Block devices"
	LabelCPUCount     = "Cores count"
	LabelMounts       = "Devices mounted at"
	LabelFreeSpace    = "Space available on root device"
	LabelPackages     = "Installed packages"
)

// SectionOrder lists every section label in the order they appear.
var SectionOrder = []string{
	LabelLoad,
	LabelBlockDevices,
	LabelCPUCount,
	LabelMounts,
	LabelFreeSpace,
	LabelPackages,
}

// Section is one labelled block of a report.
type Section struct {
	Label string
	Body  string
}

// Report is the ordered set of sections produced by one collection.
type Report struct {
	Sections []Section
}

// Section returns the body of the section with the given label.
func (r *Report) Section(label string) (string, bool) {
	for _, s := range r.Sections {
		if s.Label == label {
			return s.Body, true
		}
	}
	return "", false
}

// String renders the report as flat text: each section is its label and a
// colon on one line followed by its body, sections separated by a blank line.
func (r *Report) String() string {
	var b strings.Builder
	for i, s := range r.Sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s.Label)
		b.WriteString(":\n")
		b.WriteString(s.Body)
	}
	return b.String()
}
