package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"shopbridge/internal/cart"
	"shopbridge/internal/domain"
	productrepo "shopbridge/internal/repository/product"
	"shopbridge/internal/service/catalog"

	"github.com/gin-gonic/gin"
)

type productView struct {
	domain.Product
	ReturnPolicy domain.ReturnPolicy `json:"returnPolicy"`
}

func toProductView(p domain.Product) productView {
	return productView{Product: p, ReturnPolicy: domain.ReturnPolicyFor(p.Platform)}
}

func toProductViews(products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	return out
}

type quoteRequest struct {
	Lines []catalog.QuoteLine `json:"lines"`
}

type quoteResponse struct {
	Lines     []cart.Line `json:"lines"`
	Total     int64       `json:"total"`
	ItemCount int64       `json:"itemCount"`
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.Catalog.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": toProductViews(products), "total": len(products)})
}

func (h *handlers) searchProducts(c *gin.Context) {
	in := productrepo.SearchInput{
		Term:     strings.TrimSpace(c.Query("q")),
		Category: strings.TrimSpace(c.Query("category")),
	}
	if kind := strings.TrimSpace(c.Query("platform")); kind != "" {
		p, err := domain.ParsePlatform(kind, c.Query("label"))
		if err != nil {
			writeError(c, err)
			return
		}
		in.Platform = &p
	}
	products, err := h.deps.Catalog.Search(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": toProductViews(products), "total": len(products)})
}

func (h *handlers) getProduct(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	p, err := h.deps.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductView(*p))
}

func (h *handlers) addProduct(c *gin.Context) {
	var in catalog.AddProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	p, err := h.deps.Catalog.AddProduct(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductView(*p))
}

func (h *handlers) quoteCart(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json body")
		return
	}
	quoted, err := h.deps.Catalog.Quote(c.Request.Context(), req.Lines)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quoteResponse{
		Lines:     quoted.Lines(),
		Total:     quoted.Total(),
		ItemCount: quoted.ItemCount(),
	})
}

// idParam parses the :id path segment, answering 400 when it is malformed.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
