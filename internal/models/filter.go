package models

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ComplaintFilter narrows a complaint listing. Zero fields do not filter;
// set fields combine with AND.
type ComplaintFilter struct {
	Search   string
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
}

// ParseComplaintFilter builds a filter from raw query values. Empty values
// are ignored. Dates must be YYYY-MM-DD.
func ParseComplaintFilter(search, status, dateFrom, dateTo string) (ComplaintFilter, error) {
	f := ComplaintFilter{Search: strings.TrimSpace(search)}

	if s := strings.TrimSpace(status); s != "" {
		st, err := ParseStatus(s)
		if err != nil {
			return ComplaintFilter{}, err
		}
		f.Status = &st
	}

	var err error
	if f.DateFrom, err = parseDate(dateFrom); err != nil {
		return ComplaintFilter{}, err
	}
	if f.DateTo, err = parseDate(dateTo); err != nil {
		return ComplaintFilter{}, err
	}
	return f, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, ErrInvalidFilter
	}
	return &t, nil
}

// Values renders the filter back into form values for templates and links.
func (f ComplaintFilter) Values() map[string]string {
	v := map[string]string{"search": f.Search, "status": "", "date_from": "", "date_to": ""}
	if f.Status != nil {
		v["status"] = string(*f.Status)
	}
	if f.DateFrom != nil {
		v["date_from"] = f.DateFrom.Format(dateLayout)
	}
	if f.DateTo != nil {
		v["date_to"] = f.DateTo.Format(dateLayout)
	}
	return v
}

func (f ComplaintFilter) IsEmpty() bool {
	return f.Search == "" && f.Status == nil && f.DateFrom == nil && f.DateTo == nil
}
