package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
)

// DefaultPageSize is the platform's page size when pagination is requested
// without an explicit size.
const DefaultPageSize = 20

// ErrNoDefaultURL is returned when a list operation needs a default URL and
// the list spec declares none.
var ErrNoDefaultURL = errors.New("list has no default URL")

// ErrNotFetched is returned for list writes before the list was fetched.
var ErrNotFetched = errors.New("list has not been fetched")

// RemoteOf constrains list entries to pointer resource types.
type RemoteOf[T any] interface {
	*T
	Remote
}

// ListSpec names a resource collection on the wire. Zero fields are
// derived from the entry type name: entry name "testcase", array name
// "testcases", submit-IDs name "testCaseIds".
type ListSpec struct {
	DefaultURL    string
	ArrayName     string
	EntryName     string
	SubmitIDsName string
}

// ListOf is a remote resource collection: fetched entries plus the
// pagination, sorting and filtering query state used to fetch them.
type ListOf[T any, PT RemoteOf[T]] struct {
	spec  ListSpec
	query url.Values
	ours  bool

	client    *Client
	auth      *Credentials
	location  string
	delivered bool

	Entries []PT
	total   int
}

// NewList creates a list over the given spec.
func NewList[T any, PT RemoteOf[T]](spec ListSpec) *ListOf[T, PT] {
	name := reflect.TypeFor[T]().Name()
	if spec.EntryName == "" {
		var zero T
		spec.EntryName = PT(&zero).TypeName()
	}
	if spec.ArrayName == "" {
		spec.ArrayName = spec.EntryName + "s"
	}
	if spec.SubmitIDsName == "" {
		spec.SubmitIDsName = lowerFirst(name) + "Ids"
	}
	return &ListOf[T, PT]{
		spec:  spec,
		query: url.Values{},
	}
}

// Paginate requests a page. Zero for both arguments is a no-op; otherwise
// the page number defaults to 1 and the page size to DefaultPageSize.
func (l *ListOf[T, PT]) Paginate(pagenumber, pagesize int) *ListOf[T, PT] {
	if pagenumber == 0 && pagesize == 0 {
		return l
	}
	if pagenumber == 0 {
		pagenumber = 1
	}
	if pagesize == 0 {
		pagesize = DefaultPageSize
	}
	l.query.Set("pagenumber", fmt.Sprint(pagenumber))
	l.query.Set("pagesize", fmt.Sprint(pagesize))
	return l
}

// Sort orders the list by field. An empty field is a no-op; direction
// defaults to ascending.
func (l *ListOf[T, PT]) Sort(field, direction string) *ListOf[T, PT] {
	if field == "" {
		return l
	}
	if direction == "" {
		direction = "asc"
	}
	l.query.Set("sortfield", field)
	l.query.Set("sortdirection", direction)
	return l
}

// Filter restricts the list by field values. Keys are snake_case field
// names; only fields declared filterable on the entry type are honored,
// mapped to their wire names. Unknown keys are dropped.
func (l *ListOf[T, PT]) Filter(filters map[string]string) *ListOf[T, PT] {
	fields := filterableFields(reflect.TypeFor[T]())
	for key, value := range filters {
		if wire, ok := fields[key]; ok {
			l.query.Set(wire, value)
		}
	}
	return l
}

// Ours scopes the list to the client's configured company. The entry type
// must declare a filterable "company" field.
func (l *ListOf[T, PT]) Ours() *ListOf[T, PT] {
	l.ours = true
	return l
}

// TotalResults reports the platform's total match count (which can exceed
// the fetched page).
func (l *ListOf[T, PT]) TotalResults() int {
	return l.total
}

// Get fetches the list from its default URL.
func (l *ListOf[T, PT]) Get(ctx context.Context, c *Client, opts ...RequestOption) error {
	if l.spec.DefaultURL == "" {
		return ErrNoDefaultURL
	}
	return l.GetFrom(ctx, c, l.spec.DefaultURL, opts...)
}

// GetFrom fetches the list from an explicit URL.
func (l *ListOf[T, PT]) GetFrom(ctx context.Context, c *Client, path string, opts ...RequestOption) error {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	auth := ro.auth
	if auth == nil {
		auth = c.creds
	}

	if l.ours && c.companyID != "" {
		l.Filter(map[string]string{"company": c.companyID})
	}

	full, err := c.resolveURL(path)
	if err != nil {
		return err
	}
	u, err := url.Parse(full)
	if err != nil {
		return fmt.Errorf("invalid list URL %q: %w", full, err)
	}
	q := u.Query()
	for key, values := range l.query {
		q[key] = values
	}
	u.RawQuery = q.Encode()
	full = u.String()

	body, err := c.do(ctx, requestSpec{
		method:   http.MethodGet,
		url:      full,
		auth:     auth,
		resource: l.resourceName(),
	})
	if err != nil {
		return err
	}

	raw, total, err := decodeList(body, l.spec.ArrayName, l.spec.EntryName)
	if err != nil {
		return err
	}

	entries := make([]PT, 0, len(raw))
	for _, m := range raw {
		var zero T
		entry := PT(&zero)
		if err := setFields(entry, m); err != nil {
			return err
		}
		entry.base().attach(c, entry, auth, parseIdentity(m["resourceIdentity"]))
		entries = append(entries, entry)
	}

	l.client = c
	l.auth = auth
	l.location = stripTypeParam(full)
	l.delivered = true
	l.Entries = entries
	l.total = total
	return nil
}

// GetByID fetches a single entry from <default_url>/<id>.
func (l *ListOf[T, PT]) GetByID(ctx context.Context, c *Client, id string, opts ...RequestOption) (PT, error) {
	if l.spec.DefaultURL == "" {
		return nil, ErrNoDefaultURL
	}
	var zero T
	entry := PT(&zero)
	if err := c.Get(ctx, l.spec.DefaultURL+"/"+id, entry, opts...); err != nil {
		return nil, err
	}
	return entry, nil
}

// Post creates entry as a new member of the fetched list. The response
// populates the entry's identity; the list's credentials attach to the
// entry only when it has none of its own.
func (l *ListOf[T, PT]) Post(ctx context.Context, entry PT) error {
	if !l.delivered {
		return ErrNotFetched
	}

	auth := entry.base().auth
	if auth == nil {
		auth = l.auth
	}

	full, err := l.client.resolveURL(l.location)
	if err != nil {
		return err
	}
	body, err := l.client.do(ctx, requestSpec{
		method:      http.MethodPost,
		url:         full,
		body:        []byte(formValues(entry).Encode()),
		contentType: "application/x-www-form-urlencoded",
		auth:        auth,
		resource:    typeNameOf(entry),
	})
	if err != nil {
		return err
	}

	ident, err := decodeResource(body, entry.TypeName(), entry)
	if err != nil {
		return err
	}
	entry.base().attach(l.client, entry, auth, ident)
	return nil
}

// Put submits the list membership: the IDs of the fetched entries under
// the collection's submit-IDs name (e.g. testCaseIds=1&testCaseIds=2).
func (l *ListOf[T, PT]) Put(ctx context.Context) error {
	if !l.delivered {
		return ErrNotFetched
	}

	vals := url.Values{}
	for _, entry := range l.Entries {
		if id := entry.base().ID(); id != "" {
			vals.Add(l.spec.SubmitIDsName, id)
		}
	}

	full, err := l.client.resolveURL(l.location)
	if err != nil {
		return err
	}
	_, err = l.client.do(ctx, requestSpec{
		method:      http.MethodPut,
		url:         full,
		body:        []byte(vals.Encode()),
		contentType: "application/x-www-form-urlencoded",
		auth:        l.auth,
		resource:    l.resourceName(),
	})
	return err
}

// PutTo submits the fetched entries' IDs to an explicit collection URL,
// e.g. attaching environments to a different product version.
func (l *ListOf[T, PT]) PutTo(ctx context.Context, c *Client, path string, opts ...RequestOption) error {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}
	auth := ro.auth
	if auth == nil {
		auth = l.auth
	}
	if auth == nil {
		auth = c.creds
	}

	vals := url.Values{}
	for _, entry := range l.Entries {
		if id := entry.base().ID(); id != "" {
			vals.Add(l.spec.SubmitIDsName, id)
		}
	}

	full, err := c.resolveURL(path)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, requestSpec{
		method:      http.MethodPut,
		url:         full,
		body:        []byte(vals.Encode()),
		contentType: "application/x-www-form-urlencoded",
		auth:        auth,
		resource:    l.resourceName(),
	})
	return err
}

func (l *ListOf[T, PT]) resourceName() string {
	return reflect.TypeFor[T]().Name() + "List"
}
