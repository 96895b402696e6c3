package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Remote is implemented by every typed resource: a struct embedding
// Resource that declares its wire type name.
type Remote interface {
	// TypeName is the singular wire name, e.g. "testcase". It keys the
	// optional single-resource wrapper in responses.
	TypeName() string

	// ID and Identity are provided by the embedded Resource.
	ID() string
	Identity() *Identity

	base() *Resource
}

// Resource is the embeddable base of all typed resources. It tracks the
// resource's identity (id, version token, canonical URL), its resolved
// location, and the credentials it was fetched with.
//
// A Resource moves through three states: unfetched (no identity, no
// location), fetched (both set), and deleted (cleared again). Write
// operations require the fetched state.
type Resource struct {
	client   *Client
	auth     *Credentials
	identity *Identity
	location string
	self     Remote
}

func (r *Resource) base() *Resource { return r }

// Identity returns the resource identity, or nil before the first fetch
// and after deletion.
func (r *Resource) Identity() *Identity {
	return r.identity
}

// ID returns the resource's platform ID, or "" when unknown.
func (r *Resource) ID() string {
	if r.identity == nil {
		return ""
	}
	return r.identity.ID
}

// Location returns the resource's canonical URL, or "" when unknown.
func (r *Resource) Location() string {
	return r.location
}

// Auth returns the credentials attached to this resource.
func (r *Resource) Auth() *Credentials {
	return r.auth
}

// SetAuth attaches credentials to this resource for subsequent writes.
func (r *Resource) SetAuth(creds *Credentials) {
	r.auth = creds
}

// versionToken is the optimistic-concurrency token sent on writes. An
// unfetched resource reports version "0".
func (r *Resource) versionToken() string {
	if r.identity == nil || r.identity.Version == "" {
		return "0"
	}
	return r.identity.Version
}

// attach binds a resource to a client outside of Get; used when list
// entries are materialized.
func (r *Resource) attach(c *Client, self Remote, auth *Credentials, ident *Identity) {
	r.client = c
	r.self = self
	r.auth = auth
	r.identity = ident
	if ident != nil && ident.URL != "" {
		r.location = c.locationURL(ident.URL)
	}
}

// WriteOption adjusts a low-level resource write.
type WriteOption func(*writeSpec)

type writeSpec struct {
	url         string
	suffix      string
	contentType string
	form        url.Values
	versionFrom Remote
	noVersion   bool
}

// ToURL targets the write at an explicit URL instead of the resource
// location.
func ToURL(u string) WriteOption {
	return func(w *writeSpec) { w.url = u }
}

// ToSubResource targets the write at <location>/<suffix>.
func ToSubResource(suffix string) WriteOption {
	return func(w *writeSpec) { w.suffix = suffix }
}

// WithForm sets the form fields sent in the write body.
func WithForm(vals url.Values) WriteOption {
	return func(w *writeSpec) { w.form = vals }
}

// WithVersionFrom borrows another resource's version token for the write.
func WithVersionFrom(other Remote) WriteOption {
	return func(w *writeSpec) { w.versionFrom = other }
}

// WithoutVersion omits the version token from the write body.
func WithoutVersion() WriteOption {
	return func(w *writeSpec) { w.noVersion = true }
}

// AsJSON sends the write body as a JSON object instead of form encoding.
func AsJSON() WriteOption {
	return func(w *writeSpec) { w.contentType = "application/json" }
}

// withContentType is exposed for tests exercising the unsupported-type
// guard.
func withContentType(ct string) WriteOption {
	return func(w *writeSpec) { w.contentType = ct }
}

// Request performs a raw write against the resource (or a sub-resource of
// it), carrying the version token unless disabled. The response body is
// returned undecoded.
func (r *Resource) Request(ctx context.Context, method string, opts ...WriteOption) ([]byte, error) {
	ws := writeSpec{contentType: "application/x-www-form-urlencoded"}
	for _, opt := range opts {
		opt(&ws)
	}

	target := ws.url
	if target == "" {
		if r.location == "" {
			return nil, ErrNoLocation
		}
		target = r.location
	}
	if ws.suffix != "" {
		target = target + "/" + ws.suffix
	}
	full, err := r.client.resolveURL(target)
	if err != nil {
		return nil, err
	}

	vals := url.Values{}
	for k, vs := range ws.form {
		vals[k] = vs
	}
	if !ws.noVersion {
		src := r
		if ws.versionFrom != nil {
			src = ws.versionFrom.base()
		}
		vals.Set("originalVersionId", src.versionToken())
	}

	var body []byte
	contentType := ws.contentType
	switch contentType {
	case "application/x-www-form-urlencoded":
		if len(vals) > 0 {
			body = []byte(vals.Encode())
		} else {
			contentType = ""
		}
	case "application/json":
		obj := make(map[string]any, len(vals))
		for k := range vals {
			obj[k] = vals.Get(k)
		}
		body, err = json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported request content type %q", contentType)
	}

	return r.client.do(ctx, requestSpec{
		method:      method,
		url:         full,
		body:        body,
		contentType: contentType,
		auth:        r.auth,
		resource:    typeNameOf(r.self),
	})
}

// Refresh re-fetches the resource from its location, updating fields and
// version token.
func (r *Resource) Refresh(ctx context.Context) error {
	if r.location == "" {
		return ErrNoLocation
	}
	return r.client.Get(ctx, r.location, r.self, WithAuth(r.auth))
}

// Put persists the resource's writable fields. The body carries the
// last-known version token; a concurrent edit on the platform surfaces as
// *Conflict. On success fields and version are updated from the response.
func (r *Resource) Put(ctx context.Context) error {
	body, err := r.Request(ctx, http.MethodPut, WithForm(formValues(r.self)))
	if err != nil {
		return err
	}
	return r.absorb(body)
}

// Delete removes the resource on the platform, sending the version token
// for conflict detection. On success the identity and location are
// cleared; further requests against the value fail with ErrNoLocation.
func (r *Resource) Delete(ctx context.Context) error {
	if _, err := r.Request(ctx, http.MethodDelete); err != nil {
		return err
	}
	r.identity = nil
	r.location = ""
	return nil
}

// Activate performs the activation sub-resource PUT. Only types the
// platform treats as activatable accept it.
func (r *Resource) Activate(ctx context.Context) error {
	return r.activation(ctx, "activate")
}

// Deactivate performs the deactivation sub-resource PUT.
func (r *Resource) Deactivate(ctx context.Context) error {
	return r.activation(ctx, "deactivate")
}

func (r *Resource) activation(ctx context.Context, action string) error {
	body, err := r.Request(ctx, http.MethodPut, ToSubResource(action), WithoutVersion())
	if err != nil {
		return err
	}
	return r.absorb(body)
}

// absorb applies a write response body to the resource.
func (r *Resource) absorb(body []byte) error {
	ident, err := decodeResource(body, r.self.TypeName(), r.self)
	if err != nil {
		return err
	}
	if ident != nil {
		r.identity = ident
		if ident.URL != "" {
			r.location = r.client.locationURL(ident.URL)
		}
	}
	return nil
}
