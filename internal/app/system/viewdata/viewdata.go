// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"
	"sync"

	"github.com/dalemusser/splereg/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is shown when no event name is configured.
const DefaultSiteName = "SPLE Kuwait Registration"

var (
	mu       sync.RWMutex
	siteName = DefaultSiteName
)

// SetSiteName sets the event name shown in page headers. Call once at startup.
func SetSiteName(name string) {
	if name == "" {
		return
	}
	mu.Lock()
	siteName = name
	mu.Unlock()
}

// SiteName returns the configured event name.
func SiteName() string {
	mu.RLock()
	defer mu.RUnlock()
	return siteName
}

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
//	data := detailData{
//	    BaseVM: viewdata.NewBaseVM(r, "Registration", "/admin"),
//	}
type BaseVM struct {
	SiteName string

	// User context (from session middleware)
	IsLoggedIn bool
	Role       string
	UserName   string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF protection; empty on routes outside the CSRF middleware.
	CSRFToken string
}

// NewBaseVM creates a fully populated BaseVM for a page.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    SiteName(),
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.Role = u.Role
		vm.UserName = u.Name
	}
	return vm
}
