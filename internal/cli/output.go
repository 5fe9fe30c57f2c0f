package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storefront/internal/binding"
	"github.com/mesh-intelligence/storefront/internal/fetch"
	"github.com/mesh-intelligence/storefront/internal/qs"
	"github.com/mesh-intelligence/storefront/internal/table"
)

// rowsPerPage are the page sizes list commands accept.
var rowsPerPage = []int{5, 10, 25, 50, 100}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return exitError(exitSysError, "marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// failure turns a failed result into a command error. Transport failures
// are system errors; answers from the API are user errors.
func failure[T any](res fetch.Result[T]) error {
	var transportErr *fetch.TransportError
	if errors.As(res.Err, &transportErr) {
		return exitError(exitSysError, "%w", res.Err)
	}
	if apiErr := res.APIError(); apiErr.HasFieldErrors() {
		return exitError(exitUserError, "%s", describeFields(apiErr.Message, apiErr.Errors))
	}
	if res.Unauthorized() {
		return exitError(exitUserError, "%w (run `storefront login`)", res.Err)
	}
	return exitError(exitUserError, "%w", res.Err)
}

// describeFields lists field errors one per line in field order.
func describeFields(message string, fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	var b strings.Builder
	if message == "" {
		message = "validation failed"
	}
	b.WriteString(message)
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %s: %s", name, strings.Join(fields[name], ", "))
	}
	return b.String()
}

// notify echoes a success message from the API when notifications are on.
func (a *app) notify(cmd *cobra.Command, message string) {
	if !a.cfg.Notifications || message == "" {
		return
	}
	binding.NewSnackbar(cmd.ErrOrStderr()).Notify(binding.Notification{Type: binding.NotifySuccess, Message: message})
}

func (a *app) formatter() (*table.Formatter, error) {
	f, err := table.NewFormatter(a.cfg.Locale, a.cfg.Currency, a.cfg.APIURL)
	if err != nil {
		return nil, exitError(exitUserError, "%w", err)
	}
	return f, nil
}

// load fetches one endpoint through a binding. A 401 prints a hint to sign
// in again.
func load[T any](ctx context.Context, a *app, cmd *cobra.Command, endpoint string, query map[string]any) (*T, error) {
	svc, err := a.services()
	if err != nil {
		return nil, err
	}
	b := binding.New[T](ctx, svc.Client, endpoint, binding.Options{
		Request:   fetch.Options{Query: query},
		Immediate: true,
		Navigator: binding.NavigatorFunc(func() {
			fmt.Fprintln(cmd.ErrOrStderr(), "Your session has expired. Sign in with `storefront login`.")
		}),
		Logger: a.logger.Named("binding"),
	})
	st := b.State()
	if st.Err != nil {
		return nil, failure(fetch.Result[T]{Err: st.Err, Status: st.Status})
	}
	return st.Data, nil
}

// pageFlags are the list flags shared by every paginated command.
type pageFlags struct {
	search    string
	page      int
	limit     int
	sort      string
	direction string
}

func (f *pageFlags) register(cmd *cobra.Command, sortOptions []string) {
	fl := cmd.Flags()
	fl.StringVar(&f.search, "search", "", "filter by text")
	fl.IntVar(&f.page, "page", 1, "page number")
	fl.IntVar(&f.limit, "limit", 10, fmt.Sprintf("rows per page (%s)", joinInts(rowsPerPage)))
	fl.StringVar(&f.sort, "sort", "id", "sort field ("+strings.Join(sortOptions, ", ")+")")
	fl.StringVar(&f.direction, "direction", "desc", "sort direction (asc, desc)")
}

// pagination sanitizes the flags the way the API sanitizes its query: any
// value outside the accepted set falls back to its default.
func (f *pageFlags) pagination(sortOptions []string) qs.Pagination {
	values := url.Values{
		"search":    {f.search},
		"page":      {strconv.Itoa(f.page)},
		"limit":     {strconv.Itoa(f.limit)},
		"sort":      {f.sort},
		"direction": {f.direction},
	}
	return qs.SanitizePagination(values, rowsPerPage, sortOptions)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

// writeTable renders rows with cfg as aligned text.
func writeTable[T any](w io.Writer, f *table.Formatter, cfg table.Config[T], rows []T, p qs.Pagination) error {
	view := table.Render(table.Props[T]{
		Rows:   rows,
		Config: cfg,
		SortBy: p.Sort,
		Sort:   p.Direction,
		Page:   p.Page,
		Limit:  p.Limit,
		Format: f,
	})
	return view.WriteText(w, 0)
}

// writePageFooter summarizes the page position.
func writePageFooter(w io.Writer, page, lastPage, total int, noun string) {
	fmt.Fprintf(w, "\nPage %d of %d (%d %s)\n", page, lastPage, total, noun)
}
