package employee

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go-emptrack/internal/shared/apperror"
	"go-emptrack/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxPageSize = 100

// PhotoStore persists an uploaded photo and returns its public URL. Remove
// undoes a Save whose employee was never created.
type PhotoStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Remove(ctx context.Context, url string) error
}

type Handler struct {
	service Service
	photos  PhotoStore
	logger  *zap.Logger
}

// NewHandler builds the employee handler. photos may be nil, in which case a
// photo part on create is ignored.
func NewHandler(service Service, photos PhotoStore, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("employee.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.handler")
	}
	return &Handler{service: service, photos: photos, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := response.FromError(c, err)
	h.logger.Warn("employee request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
}

func (h *Handler) writeBindError(c *gin.Context, err error) {
	h.logger.Warn("http employee validation failed", zap.Error(err))
	response.FromError(c, apperror.MapValidationError(err))
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateEmployeeRequest
	multipartForm := c.ContentType() == "multipart/form-data"

	var err error
	if multipartForm {
		err = c.ShouldBind(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		h.writeBindError(c, err)
		return
	}

	var savedPhoto string
	if multipartForm {
		if savedPhoto = h.savePhoto(c); savedPhoto != "" {
			req.Photo = savedPhoto
		}
	}

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		if savedPhoto != "" {
			// Context may already be cancelled; the blob must still go.
			if rmErr := h.photos.Remove(context.WithoutCancel(c.Request.Context()), savedPhoto); rmErr != nil {
				h.logger.Warn("orphaned employee photo not removed",
					zap.String("url", savedPhoto),
					zap.Error(rmErr),
				)
			}
		}
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

// savePhoto stores the optional "photo" part. Any failure leaves the employee
// without a photo rather than failing the create.
func (h *Handler) savePhoto(c *gin.Context) string {
	file, err := c.FormFile("photo")
	if err != nil || h.photos == nil {
		return ""
	}

	url, err := h.photos.Save(c.Request.Context(), file)
	if err != nil {
		h.logger.Warn("create employee photo skipped",
			zap.String("filename", file.Filename),
			zap.Error(err),
		)
		return ""
	}
	return url
}

func (h *Handler) GetAll(c *gin.Context) {
	resp, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	// The slice may be shared with other callers through singleflight, so
	// filter and sort a copy.
	q := strings.TrimSpace(strings.ToLower(c.Query("q")))
	filtered := make([]EmployeeResponse, 0, len(resp))
	for _, e := range resp {
		if q == "" ||
			strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Email), q) ||
			strings.Contains(strings.ToLower(e.Designation), q) {
			filtered = append(filtered, e)
		}
	}
	resp = filtered

	sortBy := strings.ToLower(strings.TrimSpace(c.DefaultQuery("sort_by", "name")))
	sortDir := strings.ToLower(strings.TrimSpace(c.DefaultQuery("sort_dir", "asc")))
	if sortDir != "desc" {
		sortDir = "asc"
	}
	sort.SliceStable(resp, func(i, j int) bool {
		var a, b string
		switch sortBy {
		case "email":
			a, b = resp[i].Email, resp[j].Email
		case "designation":
			a, b = resp[i].Designation, resp[j].Designation
		case "date_of_joining":
			a, b = resp[i].DateOfJoining, resp[j].DateOfJoining
		default:
			a, b = resp[i].Name, resp[j].Name
		}
		a, b = strings.ToLower(a), strings.ToLower(b)
		if sortDir == "desc" {
			return a > b
		}
		return a < b
	})

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total := int64(len(resp))
	// Checked before multiplying so a huge page cannot overflow the offset.
	start := len(resp)
	if page-1 <= len(resp)/pageSize {
		start = min((page-1)*pageSize, len(resp))
	}
	end := min(start+pageSize, len(resp))

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

func (h *Handler) Export(c *gin.Context) {
	resp, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteRosterCSV(&buf, resp); err != nil {
		h.writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+RosterFilename(time.Now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) Search(c *gin.Context) {
	resp, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetById(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")
	h.logger.Debug("http update employee", zap.String("employee_id", id))

	var req UpdateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	h.logger.Debug("http delete employee", zap.String("employee_id", id))

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
