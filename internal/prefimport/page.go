package prefimport

import (
	"os"

	"workbench/internal/errors"
	"workbench/internal/log"
)

// ImportPage offers the transfer elements that apply to a snapshot file
// and imports the chosen ones
type ImportPage struct {
	service   Service
	elements  []TransferElement
	source    string
	transfers []TransferElement
	logger    log.Logging
}

// NewImportPage creates a page offering elements
func NewImportPage(service Service, elements []TransferElement) *ImportPage {
	return &ImportPage{
		service:  service,
		elements: elements,
		logger:   log.Default(),
	}
}

// SetSource selects the snapshot file and refreshes the offered transfers
func (p *ImportPage) SetSource(path string) {
	p.source = path
	p.transfers = p.computeTransfers()
}

// Source returns the selected snapshot file
func (p *ImportPage) Source() string {
	return p.source
}

// Transfers returns the elements whose filters match the source, in match
// order. It is empty when the source is missing, a directory or unreadable.
func (p *ImportPage) Transfers() []TransferElement {
	return p.transfers
}

func (p *ImportPage) validSource() bool {
	info, err := os.Stat(p.source)
	return err == nil && !info.IsDir()
}

func (p *ImportPage) computeTransfers() []TransferElement {
	if p.source == "" || !p.validSource() {
		return nil
	}
	logger := p.logger.With(log.F("source", p.source))

	f, err := os.Open(p.source)
	if err != nil {
		logger.WithError(err).Error("Cannot open preference file")
		return nil
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.WithError(err).Error("Cannot close preference file")
		}
	}()

	snap, err := p.service.Read(f, FormatFromPath(p.source))
	if err != nil {
		logger.WithError(err).Error("Cannot read preferences")
		return nil
	}

	filters := make([]*Filter, len(p.elements))
	for i, e := range p.elements {
		filters[i] = e.Filter
	}
	matches, err := p.service.Matches(snap, filters)
	if err != nil {
		logger.WithError(err).Error("Cannot match preference filters")
		return nil
	}

	var out []TransferElement
	for _, m := range matches {
		for _, e := range p.elements {
			if e.Filter == m {
				out = append(out, e)
			}
		}
	}
	return out
}

// Transfer imports the values selected by filters from the source. With
// no filters there is nothing to do and it succeeds without reading.
// Failures are logged and reported as false.
func (p *ImportPage) Transfer(filters []*Filter) bool {
	if len(filters) == 0 {
		return true
	}
	logger := p.logger.With(log.F("source", p.source))

	f, err := os.Open(p.source)
	if err != nil {
		logger.WithError(errors.NewFileError("cannot open preference file", p.source, errors.FileNotFound, err)).
			Error("Import failed")
		return false
	}
	defer func() {
		if err := f.Close(); err != nil {
			logger.WithError(err).Error("Cannot close preference file")
		}
	}()

	snap, err := p.service.Read(f, FormatFromPath(p.source))
	if err != nil {
		logger.WithError(err).Error("Import failed")
		return false
	}
	if err := p.service.Apply(snap, filters); err != nil {
		logger.WithError(err).Error("Import failed")
		return false
	}
	logger.With(log.F("filters", len(filters))).Info("Preferences imported")
	return true
}
