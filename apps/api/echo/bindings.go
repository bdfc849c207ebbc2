package echoapi

import (
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Jaimin17/Zenith-School-Backend/core"
)

var (
	orderingParam = "ordering"
	uploadField   = "file"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindOrdering reads ?ordering= and keeps the allowed fields only.
func bindOrdering(ctx echo.Context, allowed map[string]string) []core.DBOrdering {
	ord := new(Ordering)
	ord.Bind(ctx)
	return core.FilterOrderings(ord.Orderings, allowed)
}

// bindQuery binds the query params of a GET into filter.
func bindQuery(ctx echo.Context, filter interface{}) error {
	if err := ctx.Bind(filter); err != nil {
		return errInvalidQuery
	}
	return nil
}

// readUpload reads the multipart "file" field, at most limit+1 bytes so that the storage can
// reject oversized files.
func readUpload(ctx echo.Context, limit int64) (string, []byte, error) {
	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		return "", nil, errMissingFile
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, errors.Wrap(err, "opening upload")
	}
	defer func() { _ = f.Close() }()

	r := io.Reader(f)
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, errors.Wrap(err, "reading upload")
	}
	return fh.Filename, data, nil
}

type (
	listResponse struct {
		Data interface{} `json:"data"`
		core.Pagination
	}

	countResponse struct {
		Count int64 `json:"count"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func newListResponse(data interface{}, pg core.Pagination) listResponse {
	return listResponse{Data: data, Pagination: pg}
}
