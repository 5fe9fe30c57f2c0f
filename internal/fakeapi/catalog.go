package fakeapi

import (
	"cmp"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/storefront/internal/qs"
	"github.com/mesh-intelligence/storefront/pkg/types"
)

// maxUpload bounds multipart request bodies.
const maxUpload = 8 << 20

var (
	rowsPerPage         = []int{5, 10, 25, 50, 100}
	productSortOptions  = []string{"id", "name", "price", "stock", "created_at"}
	categorySortOptions = []string{"id", "name"}
)

// paginate slices rows for p and builds the envelope.
func paginate[T any](rows []T, p qs.Pagination) types.Pagination[T] {
	total := len(rows)
	lastPage := int(math.Ceil(float64(total) / float64(p.Limit)))
	if lastPage < 1 {
		lastPage = 1
	}
	start := min(p.Offset(), total)
	end := min(start+p.Limit, total)
	page := append([]T{}, rows[start:end]...)
	return types.Pagination[T]{
		Meta: types.PaginationMeta{Total: total, Limit: p.Limit, Page: p.Page, LastPage: lastPage},
		Data: page,
	}
}

func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func sortRows[T any](rows []T, desc bool, compare func(a, b T) int) {
	slices.SortStableFunc(rows, func(a, b T) int {
		if desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
}

// categories

func (s *Server) categoryIndex(id string) int {
	return slices.IndexFunc(s.categories, func(c types.Category) bool { return c.ID == id })
}

func (s *Server) listCategories(c *gin.Context) {
	p := qs.SanitizePagination(c.Request.URL.Query(), rowsPerPage, categorySortOptions)
	s.mu.Lock()
	var rows []types.Category
	for _, cat := range s.categories {
		if matches(p.Search, cat.Name, cat.Description) {
			rows = append(rows, cat)
		}
	}
	s.mu.Unlock()

	sortRows(rows, p.Direction == types.SortDesc, func(a, b types.Category) int {
		if p.Sort == "name" {
			return cmp.Compare(a.Name, b.Name)
		}
		return cmp.Compare(a.ID, b.ID)
	})
	s.respond(c, http.StatusOK, paginate(rows, p))
}

func (s *Server) getCategory(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(c.Param("id"))
	if i < 0 {
		s.fail(c, http.StatusNotFound, "Category not found", nil)
		return
	}
	s.respond(c, http.StatusOK, types.DataResponse[types.Category]{Data: s.categories[i]})
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (s *Server) createCategory(c *gin.Context) {
	var req categoryRequest
	if !s.bind(c, &req) {
		return
	}
	cat := types.Category{ID: uuid.NewString(), Name: req.Name, Description: req.Description}
	s.mu.Lock()
	s.categories = append(s.categories, cat)
	s.mu.Unlock()
	s.respond(c, http.StatusCreated, types.DataResponse[types.Category]{Message: "Category created", Data: cat})
}

func (s *Server) updateCategory(c *gin.Context) {
	var req categoryRequest
	if !s.bind(c, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.categoryIndex(c.Param("id"))
	if i < 0 {
		s.fail(c, http.StatusNotFound, "Category not found", nil)
		return
	}
	s.categories[i].Name, s.categories[i].Description = req.Name, req.Description
	for j := range s.products {
		if s.products[j].Category.ID == s.categories[i].ID {
			s.products[j].Category = s.categories[i]
		}
	}
	s.respond(c, http.StatusOK, types.DataResponse[types.Category]{Message: "Category updated", Data: s.categories[i]})
}

func (s *Server) deleteCategory(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	i := s.categoryIndex(id)
	if i < 0 {
		s.fail(c, http.StatusNotFound, "Category not found", nil)
		return
	}
	if slices.ContainsFunc(s.products, func(p types.Product) bool { return p.Category.ID == id }) {
		s.fail(c, http.StatusConflict, "Category still has products", nil)
		return
	}
	s.categories = slices.Delete(s.categories, i, i+1)
	s.message(c, http.StatusOK, "Category deleted")
}

// products

func (s *Server) productIndex(id string) int {
	return slices.IndexFunc(s.products, func(p types.Product) bool { return p.ID == id })
}

func (s *Server) listProducts(c *gin.Context) {
	query := c.Request.URL.Query()
	p := qs.SanitizePagination(query, rowsPerPage, productSortOptions)
	categoryID, storeID := query.Get("category_id"), query.Get("store_id")
	inStock := query.Get("in_stock") == "1" || query.Get("in_stock") == "true"

	s.mu.Lock()
	var rows []types.Product
	for _, prod := range s.products {
		switch {
		case categoryID != "" && prod.Category.ID != categoryID:
		case storeID != "" && prod.Store.ID != storeID:
		case inStock && prod.Stock <= 0:
		case !matches(p.Search, prod.Name, prod.Description):
		default:
			rows = append(rows, prod)
		}
	}
	s.mu.Unlock()

	sortRows(rows, p.Direction == types.SortDesc, func(a, b types.Product) int {
		switch p.Sort {
		case "name":
			return cmp.Compare(a.Name, b.Name)
		case "price":
			return a.Price.Cmp(b.Price)
		case "stock":
			return cmp.Compare(a.Stock, b.Stock)
		case "created_at":
			return a.CreatedAt.Compare(b.CreatedAt)
		default:
			return cmp.Compare(a.ID, b.ID)
		}
	})
	s.respond(c, http.StatusOK, paginate(rows, p))
}

func (s *Server) getProduct(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(c.Param("id"))
	if i < 0 {
		s.fail(c, http.StatusNotFound, "Product not found", nil)
		return
	}
	s.respond(c, http.StatusOK, types.DataResponse[types.Product]{Data: s.products[i]})
}

// productForm reads a multipart product form over base. Absent fields keep
// base's values. It writes the failure response itself.
func (s *Server) productForm(c *gin.Context, base types.ProductInput) (types.ProductInput, *upload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
	if err := c.Request.ParseMultipartForm(maxUpload); err != nil {
		s.fail(c, http.StatusBadRequest, "Expected multipart form data", nil)
		return base, nil, false
	}
	form := c.Request.MultipartForm.Value
	fields := make(map[string][]string)

	in := base
	if v, ok := form["name"]; ok {
		in.Name = strings.TrimSpace(v[0])
	}
	if v, ok := form["description"]; ok {
		in.Description = v[0]
	}
	if v, ok := form["category_id"]; ok {
		in.CategoryID = v[0]
	}
	if v, ok := form["price"]; ok {
		price, err := decimal.NewFromString(v[0])
		if err != nil || price.IsNegative() {
			fields["price"] = append(fields["price"], "must be a non-negative number")
		} else {
			in.Price = price
		}
	}
	if v, ok := form["stock"]; ok {
		stock, err := strconv.Atoi(v[0])
		if err != nil {
			fields["stock"] = append(fields["stock"], "must be a whole number")
		} else {
			in.Stock = stock
		}
	}
	for k, v := range s.fieldErrors(in) {
		fields[k] = append(fields[k], v...)
	}
	if in.CategoryID != "" && s.categoryIndex(in.CategoryID) < 0 {
		fields["categoryId"] = append(fields["categoryId"], "does not exist")
	}

	img, err := readUpload(c, "image")
	if err != nil {
		fields["image"] = append(fields["image"], "could not be read")
	}
	if len(fields) > 0 {
		s.fail(c, http.StatusUnprocessableEntity, "Validation failed", fields)
		return in, nil, false
	}
	return in, img, true
}

// readUpload returns the named file part, or nil when absent.
func readUpload(c *gin.Context, field string) (*upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &upload{filename: fh.Filename, contentType: ct, data: data}, nil
}

// storeUpload keeps an uploaded file and returns its relative URL. Callers
// hold s.mu.
func (s *Server) storeUpload(u *upload) string {
	name := uuid.NewString() + filepath.Ext(u.filename)
	s.uploads[name] = *u
	return "/uploads/" + name
}

func (s *Server) createProduct(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store := current(c).user.Store
	if store == nil {
		s.fail(c, http.StatusForbidden, "Create a store before adding products", nil)
		return
	}
	in, img, ok := s.productForm(c, types.ProductInput{})
	if !ok {
		return
	}
	now := s.now()
	prod := types.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    s.categories[s.categoryIndex(in.CategoryID)],
		Store:       *store,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if img != nil {
		prod.ImageURL = s.storeUpload(img)
	}
	s.products = append(s.products, prod)
	s.respond(c, http.StatusCreated, types.DataResponse[types.Product]{Message: "Product created", Data: prod})
}

// ownsProduct reports whether acc may change the product. Callers hold s.mu.
func ownsProduct(acc *account, p types.Product) bool {
	return acc.user.Role == types.RoleAdmin || (acc.user.Store != nil && acc.user.Store.ID == p.Store.ID)
}

func (s *Server) updateProduct(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(c.Param("id"))
	if i < 0 {
		s.fail(c, http.StatusNotFound, "Product not found", nil)
		return
	}
	prod := s.products[i]
	if !ownsProduct(current(c), prod) {
		s.fail(c, http.StatusForbidden, "Forbidden", nil)
		return
	}
	base := types.ProductInput{
		Name: prod.Name, Description: prod.Description, Price: prod.Price,
		Stock: prod.Stock, CategoryID: prod.Category.ID,
	}
	in, img, ok := s.productForm(c, base)
	if !ok {
		return
	}
	prod.Name, prod.Description, prod.Price, prod.Stock = in.Name, in.Description, in.Price, in.Stock
	prod.Category = s.categories[s.categoryIndex(in.CategoryID)]
	if img != nil {
		prod.ImageURL = s.storeUpload(img)
	}
	prod.UpdatedAt = s.now()
	s.products[i] = prod
	s.respond(c, http.StatusOK, types.DataResponse[types.Product]{Message: "Product updated", Data: prod})
}

func (s *Server) deleteProduct(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(c.Param("id"))
	if i < 0 {
		s.fail(c, http.StatusNotFound, "Product not found", nil)
		return
	}
	if !ownsProduct(current(c), s.products[i]) {
		s.fail(c, http.StatusForbidden, "Forbidden", nil)
		return
	}
	s.products = slices.Delete(s.products, i, i+1)
	s.message(c, http.StatusOK, "Product deleted")
}

// stores

func (s *Server) myStore(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	store := current(c).user.Store
	if store == nil {
		s.fail(c, http.StatusNotFound, "You do not have a store yet", nil)
		return
	}
	s.respond(c, http.StatusOK, types.DataResponse[types.Store]{Data: *store})
}

// storeForm reads a multipart store form over base.
func (s *Server) storeForm(c *gin.Context, base types.Store) (types.Store, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
	if err := c.Request.ParseMultipartForm(maxUpload); err != nil {
		s.fail(c, http.StatusBadRequest, "Expected multipart form data", nil)
		return base, false
	}
	form := c.Request.MultipartForm.Value
	st := base
	if v, ok := form["name"]; ok {
		st.Name = strings.TrimSpace(v[0])
	}
	if v, ok := form["description"]; ok {
		st.Description = v[0]
	}
	if fields := s.fieldErrors(types.StoreInput{Name: st.Name}); len(fields) > 0 {
		s.fail(c, http.StatusUnprocessableEntity, "Validation failed", fields)
		return st, false
	}
	avatar, err := readUpload(c, "avatar")
	if err != nil {
		s.fail(c, http.StatusUnprocessableEntity, "Validation failed", map[string][]string{"avatar": {"could not be read"}})
		return st, false
	}
	if avatar != nil {
		st.AvatarURL = s.storeUpload(avatar)
	}
	return st, true
}

func (s *Server) createStore(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := current(c)
	if acc.user.Store != nil {
		s.fail(c, http.StatusConflict, "You already have a store", nil)
		return
	}
	st, ok := s.storeForm(c, types.Store{ID: uuid.NewString()})
	if !ok {
		return
	}
	acc.user.Store = &st
	s.respond(c, http.StatusCreated, types.DataResponse[types.Store]{Message: "Store created", Data: st})
}

func (s *Server) updateStore(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := current(c)
	if acc.user.Store == nil {
		s.fail(c, http.StatusNotFound, "You do not have a store yet", nil)
		return
	}
	st, ok := s.storeForm(c, *acc.user.Store)
	if !ok {
		return
	}
	acc.user.Store = &st
	for i := range s.products {
		if s.products[i].Store.ID == st.ID {
			s.products[i].Store = st
		}
	}
	s.respond(c, http.StatusOK, types.DataResponse[types.Store]{Message: "Store updated", Data: st})
}

func (s *Server) serveUpload(c *gin.Context) {
	s.mu.Lock()
	u, ok := s.uploads[c.Param("name")]
	s.mu.Unlock()
	if !ok {
		s.fail(c, http.StatusNotFound, "File not found", nil)
		return
	}
	c.Data(http.StatusOK, u.contentType, u.data)
}
