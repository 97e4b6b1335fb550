package handlers

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"userauth/internal/middleware"
	"userauth/internal/models"
	"userauth/internal/pdf"
	"userauth/internal/services"
)

type UserHandler struct {
	service   services.UserService
	reports   pdf.Generator
	filesRoot string
}

func NewUserHandler(service services.UserService, reports pdf.Generator, filesRoot string) *UserHandler {
	return &UserHandler{service: service, reports: reports, filesRoot: filesRoot}
}

type createUserRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=30"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Gender      string `json:"gender" binding:"required,oneof=Male Female"`
	DateOfBirth string `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	Image       string `json:"image" binding:"omitempty,url"`
}

type updateUserRequest struct {
	Name        string `json:"name" binding:"required,min=3,max=30"`
	Email       string `json:"email" binding:"required,email"`
	Gender      string `json:"gender" binding:"required,oneof=Male Female"`
	DateOfBirth string `json:"dateOfBirth" binding:"omitempty,datetime=2006-01-02"`
	Image       string `json:"image" binding:"omitempty,url"`
	Role        string `json:"role" binding:"omitempty,oneof=admin user"`
}

func parseBirthDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

// @Summary      Sign up
// @Description  Registers a new account
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "New account"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Router       /api/v1/user [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation Error: "+err.Error())
		return
	}

	email := strings.TrimSpace(req.Email)
	if existing, err := h.service.GetUserByEmail(email); err == nil && existing != nil {
		respondError(c, http.StatusBadRequest, "User already exists")
		return
	}

	// signup never takes a role from the body
	user := &models.User{
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		Gender:      req.Gender,
		DateOfBirth: parseBirthDate(req.DateOfBirth),
		Image:       req.Image,
	}

	if err := h.service.CreateUserWithPassword(user, req.Password); err != nil {
		log.Printf("[user][create] service error: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respond(c, http.StatusCreated, "User created successfully", gin.H{"user": user})
}

// @Summary      List users
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size"
// @Param        offset  query     int  false  "Offset"
// @Success      200     {object}  map[string]interface{}
// @Router       /api/v1/user [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	users, err := h.service.ListUsers(limit, offset)
	if err != nil {
		log.Printf("[user][list] service error: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if len(users) == 0 {
		respond(c, http.StatusOK, "No users found", gin.H{"data": []*models.User{}})
		return
	}
	respond(c, http.StatusOK, "Data Get successfully", gin.H{"data": users})
}

// @Summary      Get user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/v1/user/{id} [get]
func (h *UserHandler) GetUserByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID")
		return
	}
	user, err := h.service.GetUserByID(id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "Data not found")
			return
		}
		log.Printf("[user][get] service error for id=%d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respond(c, http.StatusOK, "Data Get successfully", gin.H{"data": user})
}

// @Summary      Update user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "User ID"
// @Param        body  body      updateUserRequest  true  "Updated fields"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]interface{}
// @Failure      404   {object}  map[string]interface{}
// @Router       /api/v1/user/{id} [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	target, err := h.service.GetUserByID(id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "User not found")
			return
		}
		log.Printf("[user][update] lookup error for id=%d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation Error: "+err.Error())
		return
	}

	target.Name = strings.TrimSpace(req.Name)
	target.Email = strings.TrimSpace(req.Email)
	target.Gender = req.Gender
	target.DateOfBirth = parseBirthDate(req.DateOfBirth)
	if req.Image != "" {
		target.Image = req.Image
	}
	// only admins may change roles
	if req.Role != "" && req.Role != target.Role {
		role, _ := c.Get(middleware.CtxRoleKey)
		if role != models.RoleAdmin {
			respondError(c, http.StatusForbidden, "Forbidden")
			return
		}
		target.Role = req.Role
	}

	if err := h.service.UpdateUser(target); err != nil {
		log.Printf("[user][update] service error for id=%d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respond(c, http.StatusOK, "User updated successfully", gin.H{"data": target})
}

// @Summary      Delete user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /api/v1/user/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.service.GetUserByID(id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, "Data not found")
			return
		}
		log.Printf("[user][delete] lookup error for id=%d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := h.service.DeleteUser(id); err != nil {
		log.Printf("[user][delete] service error for id=%d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respond(c, http.StatusOK, "User deleted successfully", gin.H{"data": user})
}

// @Summary      Upload profile image
// @Tags         Users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      int   true  "User ID"
// @Param        image  formData  file  true  "Profile image"
// @Success      200    {object}  map[string]interface{}
// @Failure      400    {object}  map[string]interface{}
// @Router       /api/v1/user/{id}/image [post]
func (h *UserHandler) UploadImage(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid user ID")
		return
	}
	me, ok := middleware.CurrentUser(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorize User")
		return
	}
	// owners only; admins may update anyone
	if me.ID != id {
		role, _ := c.Get(middleware.CtxRoleKey)
		if role != models.RoleAdmin {
			respondError(c, http.StatusForbidden, "Forbidden")
			return
		}
	}

	file, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "Image file is required")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		respondError(c, http.StatusBadRequest, "Unsupported image format")
		return
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(h.filesRoot, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		log.Printf("[user][upload] save failed for id=%d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := h.service.UpdateImage(id, name); err != nil {
		log.Printf("[user][upload] image update failed for id=%d: %v", id, err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	respond(c, http.StatusOK, "Image uploaded successfully", gin.H{"image": name})
}

// @Summary      Export users as PDF
// @Tags         Users
// @Produce      application/pdf
// @Security     BearerAuth
// @Success      200  {file}    file
// @Router       /api/v1/user/export/pdf [get]
func (h *UserHandler) ExportPDF(c *gin.Context) {
	users, err := h.service.ListUsers(1000, 0)
	if err != nil {
		log.Printf("[user][export] service error: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	path, err := h.reports.GenerateUsersReport(users)
	if err != nil {
		log.Printf("[user][export] pdf generation failed: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}
