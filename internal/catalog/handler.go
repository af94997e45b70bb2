package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"iiot-site/internal/common/auth"
	apperrors "iiot-site/internal/common/errors"
	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/validation"
)

// Handler exposes the catalog over HTTP.
type Handler struct {
	svc    *Service
	eh     *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(svc *Service, eh *apperrors.ErrorHandler, log logger.Logger) *Handler {
	return &Handler{svc: svc, eh: eh, logger: log}
}

// RegisterPublic mounts read-only routes that only ever show published items.
func (h *Handler) RegisterPublic(rg *gin.RouterGroup) {
	rg.GET("/products", h.listProducts(false))
	rg.GET("/products/:slug", h.getProduct(false))
	rg.GET("/categories", h.listCategories)
	rg.GET("/posts", h.listPosts(false))
	rg.GET("/posts/:slug", h.getPost(false))
}

// RegisterAdmin mounts management routes. Callers attach authentication.
func (h *Handler) RegisterAdmin(rg *gin.RouterGroup) {
	rg.GET("/products", h.listProducts(true))
	rg.GET("/products/:slug", h.getProduct(true))
	rg.POST("/products", h.createProduct)
	rg.PUT("/products/:slug", h.updateProduct)
	rg.DELETE("/products/:slug", h.deleteProduct)

	rg.POST("/categories", h.createCategory)
	rg.DELETE("/categories/:slug", h.deleteCategory)

	rg.GET("/posts", h.listPosts(true))
	rg.GET("/posts/:slug", h.getPost(true))
	rg.POST("/posts", h.createPost)
	rg.PUT("/posts/:slug", h.updatePost)
	rg.DELETE("/posts/:slug", h.deletePost)
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.eh.Respond(c, apperrors.NewNotFoundError("Resource", c.Param("slug")))
	case errors.Is(err, ErrSlugConflict):
		h.eh.Respond(c, apperrors.NewConflictError("Slug already exists", err.Error()))
	case errors.Is(err, ErrInvalidSlug):
		h.eh.Respond(c, apperrors.NewValidationError("Invalid slug", err.Error()))
	case errors.Is(err, ErrUnknownCategory):
		h.eh.Respond(c, apperrors.NewValidationError("Unknown category", err.Error()))
	case errors.Is(err, ErrCategoryInUse):
		h.eh.Respond(c, apperrors.NewConflictError("Category still has products", err.Error()))
	default:
		h.eh.Respond(c, apperrors.NewQueryExecutionFailedError("catalog", err))
	}
}

// ==========================
// Query parsing
// ==========================

func pageParams(c *gin.Context) (int, int, error) {
	page, err := intQuery(c, "page")
	if err != nil {
		return 0, 0, err
	}
	size, err := intQuery(c, "pageSize")
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("Invalid "+name+" parameter", err.Error())
	}
	return n, nil
}

func (h *Handler) listProducts(includeDrafts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size, err := pageParams(c)
		if err != nil {
			h.eh.Respond(c, err)
			return
		}
		f := ProductFilter{
			Category:      c.Query("category"),
			Query:         strings.TrimSpace(c.Query("q")),
			IncludeDrafts: includeDrafts,
			Page:          page,
			PageSize:      size,
		}
		if raw := c.Query("featured"); raw != "" {
			featured, err := strconv.ParseBool(raw)
			if err != nil {
				h.eh.Respond(c, apperrors.NewValidationError("Invalid featured parameter", err.Error()))
				return
			}
			f.Featured = &featured
		}

		res, err := h.svc.ListProducts(c.Request.Context(), f)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func (h *Handler) getProduct(includeDrafts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.svc.GetProduct(c.Request.Context(), c.Param("slug"), includeDrafts)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func (h *Handler) listCategories(c *gin.Context) {
	cats, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": cats})
}

func (h *Handler) listPosts(includeDrafts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, size, err := pageParams(c)
		if err != nil {
			h.eh.Respond(c, err)
			return
		}
		res, err := h.svc.ListPosts(c.Request.Context(), PostFilter{
			Tag:           c.Query("tag"),
			IncludeDrafts: includeDrafts,
			Page:          page,
			PageSize:      size,
		})
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func (h *Handler) getPost(includeDrafts bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.svc.GetPost(c.Request.Context(), c.Param("slug"), includeDrafts)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// ==========================
// Admin mutations
// ==========================

// bind validates the raw body against schema before decoding into out.
func (h *Handler) bind(c *gin.Context, schema *validation.Schema, out interface{}) bool {
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		h.eh.Respond(c, apperrors.NewInvalidRequestFormatError(err))
		return false
	}
	if !json.Valid(raw) {
		h.eh.Respond(c, apperrors.NewInvalidRequestFormatError(errors.New("body is not JSON")))
		return false
	}

	result, err := schema.Validate(raw)
	if err != nil {
		h.eh.Respond(c, apperrors.NewInvalidRequestFormatError(err))
		return false
	}
	if !result.Valid {
		msgs := result.GetErrorMessages()
		h.eh.Respond(c, apperrors.NewValidationError("Invalid payload: "+strings.Join(msgs, "; "), ""))
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		h.eh.Respond(c, apperrors.NewInvalidRequestFormatError(err))
		return false
	}
	return true
}

func (h *Handler) audit(c *gin.Context, action, slug string) {
	fields := map[string]interface{}{"action": action, "slug": slug}
	if p := auth.Principal(c); p != nil {
		fields["admin"] = p.Username
	}
	h.logger.Info("catalog changed", fields)
}

func (h *Handler) createProduct(c *gin.Context) {
	var p Product
	if !h.bind(c, productSchema, &p) {
		return
	}
	p.ID = ""
	if err := h.svc.CreateProduct(c.Request.Context(), &p); err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "product.create", p.Slug)
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var p Product
	if !h.bind(c, productSchema, &p) {
		return
	}
	if err := h.svc.UpdateProduct(c.Request.Context(), c.Param("slug"), &p); err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "product.update", p.Slug)
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.svc.DeleteProduct(c.Request.Context(), slug); err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "product.delete", slug)
	c.Status(http.StatusNoContent)
}

func (h *Handler) createCategory(c *gin.Context) {
	var cat Category
	if !h.bind(c, categorySchema, &cat) {
		return
	}
	if err := h.svc.CreateCategory(c.Request.Context(), &cat); err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "category.create", cat.Slug)
	c.JSON(http.StatusCreated, cat)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.svc.DeleteCategory(c.Request.Context(), slug); err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "category.delete", slug)
	c.Status(http.StatusNoContent)
}

func (h *Handler) createPost(c *gin.Context) {
	var p Post
	if !h.bind(c, postSchema, &p) {
		return
	}
	p.ID = ""
	if err := h.svc.CreatePost(c.Request.Context(), &p); err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "post.create", p.Slug)
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) updatePost(c *gin.Context) {
	var p Post
	if !h.bind(c, postSchema, &p) {
		return
	}
	if err := h.svc.UpdatePost(c.Request.Context(), c.Param("slug"), &p); err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "post.update", p.Slug)
	c.JSON(http.StatusOK, p)
}

func (h *Handler) deletePost(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.svc.DeletePost(c.Request.Context(), slug); err != nil {
		h.fail(c, err)
		return
	}
	h.audit(c, "post.delete", slug)
	c.Status(http.StatusNoContent)
}
