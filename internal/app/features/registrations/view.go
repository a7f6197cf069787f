// internal/app/features/registrations/view.go
package registrations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/splereg/internal/app/store/audit"
	"github.com/dalemusser/splereg/internal/app/system/editor"
	"github.com/dalemusser/splereg/internal/app/system/formutil"
	"github.com/dalemusser/splereg/internal/app/system/timezones"
	"github.com/dalemusser/splereg/internal/app/system/viewdata"
	"github.com/dalemusser/splereg/internal/domain/models"
)

type attachmentVM struct {
	Index     int
	Name      string
	URL       string
	MimeType  string
	SizeLabel string
}

type historyVM struct {
	When    string
	Event   string
	Details string
	Failed  bool
}

type option struct {
	Value string
	Label string
}

type detailData struct {
	viewdata.BaseVM
	ID            string
	Reg           models.Registration
	FullName      string
	Submitted     string
	TypeLabel     string
	Attachments   []attachmentVM
	SignatureURL  string
	SignatureName string
	ShowHistory   bool
	History       []historyVM
}

type editData struct {
	formutil.Base
	ID          string
	FullName    string
	Fields      editor.Fields
	Categories  []string
	Types       []option
	Attachments []attachmentVM
	MaxUploadMB int64
	Notice      string
}

// sizeLabel shows MB above one mebibyte, KB otherwise, N/A when unknown.
func sizeLabel(size int64) string {
	switch {
	case size <= 0:
		return "N/A"
	case size > 1<<20:
		return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
	default:
		return fmt.Sprintf("%.2f KB", float64(size)/(1<<10))
	}
}

// signatureName is the download name offered for a signature image.
func signatureName(surname string) string {
	return "signature_" + strings.TrimSpace(surname) + ".png"
}

func attachmentsVM(atts []models.Attachment) []attachmentVM {
	out := make([]attachmentVM, len(atts))
	for i, a := range atts {
		out[i] = attachmentVM{
			Index:     i,
			Name:      a.Name,
			URL:       a.URL,
			MimeType:  a.MimeType,
			SizeLabel: sizeLabel(a.Size),
		}
	}
	return out
}

func historyFrom(events []audit.Event) []historyVM {
	loc := timezones.Display()
	out := make([]historyVM, len(events))
	for i, e := range events {
		out[i] = historyVM{
			When:    e.Timestamp.In(loc).Format("2006-01-02 15:04"),
			Event:   strings.ReplaceAll(e.EventType, "_", " "),
			Details: detailsText(e.Details),
			Failed:  !e.Success,
		}
	}
	return out
}

// detailsText renders details as "k=v" pairs in key order.
func detailsText(d map[string]string) string {
	if len(d) == 0 {
		return ""
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + d[k]
	}
	return strings.Join(parts, ", ")
}

func typeOptions() []option {
	out := make([]option, len(models.Types))
	for i, t := range models.Types {
		label := t
		if t == "" {
			label = "Pending"
		}
		out[i] = option{Value: t, Label: label}
	}
	return out
}

// categoryChoices keeps a stored category selectable even when it is no
// longer offered on the intake form.
func categoryChoices(current string) []string {
	for _, c := range models.Categories {
		if c == current {
			return models.Categories
		}
	}
	if current == "" {
		return models.Categories
	}
	return append([]string{current}, models.Categories...)
}

var notices = map[string]string{
	"attachment_removed": "Attachment removed.",
	"reopened":           "The editor was reloaded. Check the attachments and try again.",
}
