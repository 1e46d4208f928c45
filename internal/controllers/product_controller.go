package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/repository"
	"github.com/cartz/cartz-backend/internal/services"
)

type ProductController struct {
	products   *services.ProductService
	categories *services.CategoryService
}

func NewProductController(products *services.ProductService, categories *services.CategoryService) *ProductController {
	return &ProductController{products: products, categories: categories}
}

func (pc *ProductController) ListProducts(c *gin.Context) {
	page, limit := parsePagination(c)
	params := repository.ListProductsParams{
		Page:     page,
		Limit:    limit,
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	products, total, err := pc.products.ListProducts(c.Request.Context(), params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": products, "total": total, "page": page, "limit": limit})
}

func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.products.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": product})
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var req models.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	product, err := pc.products.CreateProduct(c.Request.Context(), req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondCreated(c, gin.H{"data": product})
}

func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var req models.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	product, err := pc.products.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": product})
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if err := pc.products.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"message": "product deleted"})
}

func (pc *ProductController) ListCategories(c *gin.Context) {
	categories, err := pc.categories.List(c.Request.Context())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": categories})
}

func (pc *ProductController) CreateCategory(c *gin.Context) {
	var req services.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	category, err := pc.categories.Create(c.Request.Context(), req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondCreated(c, gin.H{"data": category})
}
