package notifications

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Domain names of the built-in descriptors.
const (
	DomainUser  = "user"
	DomainAdmin = "admin"
)

const idPlaceholder = "{id}"

// Domain describes one independent notification table: where its records,
// unread counter and mark-seen action live on the REST API, and how its
// kinds are rendered. The user and admin domains are never cross-called.
type Domain struct {
	Name           string       `yaml:"name"`
	ListPath       string       `yaml:"list_path"`
	CountPath      string       `yaml:"count_path"`
	MarkSeenPath   string       `yaml:"mark_seen_path"` // must contain {id}
	MarkSeenMethod string       `yaml:"mark_seen_method"`
	Content        ContentTable `yaml:"content"`
}

// UserDomain returns the descriptor for learner notifications.
func UserDomain() Domain {
	return Domain{
		Name:           DomainUser,
		ListPath:       "/user/notifications",
		CountPath:      "/user/notification/number",
		MarkSeenPath:   "/user/notification/{id}/seen",
		MarkSeenMethod: http.MethodPost,
		Content:        userContent(),
	}
}

// AdminDomain returns the descriptor for admin dashboard notifications.
func AdminDomain() Domain {
	return Domain{
		Name:           DomainAdmin,
		ListPath:       "/admin/notifications",
		CountPath:      "/admin/notification/number",
		MarkSeenPath:   "/admin/notification/{id}/seen",
		MarkSeenMethod: http.MethodPost,
		Content:        adminContent(),
	}
}

// Describe returns the display content for n. A title or message present on
// the record overrides the synthesized text for that field only.
func (d Domain) Describe(n Notification) Content {
	return d.Content.Lookup(n.Kind).merge(Content{Title: n.Title, Message: n.Message})
}

// MarkSeenURLPath expands the mark-seen template for id.
func (d Domain) MarkSeenURLPath(id int64) string {
	return strings.ReplaceAll(d.MarkSeenPath, idPlaceholder, strconv.FormatInt(id, 10))
}

// Validate checks that the descriptor can be used by a Client.
func (d Domain) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidDomain)
	case !strings.HasPrefix(d.ListPath, "/"):
		return fmt.Errorf("%w: %s: list path %q must be absolute", ErrInvalidDomain, d.Name, d.ListPath)
	case !strings.HasPrefix(d.CountPath, "/"):
		return fmt.Errorf("%w: %s: count path %q must be absolute", ErrInvalidDomain, d.Name, d.CountPath)
	case !strings.HasPrefix(d.MarkSeenPath, "/") || !strings.Contains(d.MarkSeenPath, idPlaceholder):
		return fmt.Errorf("%w: %s: mark-seen path %q must be absolute and contain %s", ErrInvalidDomain, d.Name, d.MarkSeenPath, idPlaceholder)
	}
	return nil
}

func (d Domain) merge(o Domain) Domain {
	if o.ListPath != "" {
		d.ListPath = o.ListPath
	}
	if o.CountPath != "" {
		d.CountPath = o.CountPath
	}
	if o.MarkSeenPath != "" {
		d.MarkSeenPath = o.MarkSeenPath
	}
	if o.MarkSeenMethod != "" {
		d.MarkSeenMethod = strings.ToUpper(o.MarkSeenMethod)
	}
	d.Content = d.Content.merge(o.Content)
	return d
}

// Domains holds the pair of descriptors a session works with.
type Domains struct {
	User  Domain `yaml:"user"`
	Admin Domain `yaml:"admin"`
}

// DefaultDomains returns the built-in user and admin descriptors.
func DefaultDomains() Domains {
	return Domains{User: UserDomain(), Admin: AdminDomain()}
}

// ParseDomains overlays a YAML document onto the built-in descriptors.
// Only the fields present in the document are replaced; content entries
// are merged per kind.
//
//	user:
//	  list_path: /v2/user/notifications
//	  content:
//	    kinds:
//	      new_quest:
//	        title: Fresh quest!
func ParseDomains(data []byte) (Domains, error) {
	var overrides Domains
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return Domains{}, fmt.Errorf("%w: %w", ErrInvalidDomain, err)
	}

	out := DefaultDomains()
	out.User = out.User.merge(overrides.User)
	out.Admin = out.Admin.merge(overrides.Admin)

	for _, d := range []Domain{out.User, out.Admin} {
		if err := d.Validate(); err != nil {
			return Domains{}, err
		}
	}
	return out, nil
}

// LoadDomains reads descriptor overrides from a YAML file. An empty path
// returns the built-in descriptors.
func LoadDomains(path string) (Domains, error) {
	if path == "" {
		return DefaultDomains(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Domains{}, fmt.Errorf("read domains file: %w", err)
	}
	return ParseDomains(data)
}
