package site

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"inkwell/common"
	"inkwell/models"
	"inkwell/posts"
	"inkwell/views"
)

type SiteModule struct {
	posts  *posts.Service
	domain string
}

func NewSiteModule(p *posts.Service, domain string) *SiteModule {
	if domain == "" {
		domain = "http://localhost"
	}
	return &SiteModule{posts: p, domain: strings.TrimSuffix(domain, "/")}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", s.index)
	router.GET("/leia/:category", s.listByCategory)
	router.GET("/sitemap.xml", s.sitemap)
}

// index is the landing payload: every category tab and the first page of
// the newest published posts.
func (s *SiteModule) index(c *gin.Context) {
	published, err := s.posts.ListPublished(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	page := views.Listing{Category: models.CategoryAll, Page: 1}.Apply(published)

	common.OK(c, http.StatusOK, gin.H{
		"domain":     s.domain,
		"categories": append([]models.Category{models.CategoryAll}, models.Categories...),
		"blogs":      page.Items,
		"page":       page.Number,
		"pages":      page.TotalPages,
		"total":      page.TotalItems,
	})
}

func (s *SiteModule) listByCategory(c *gin.Context) {
	published, err := s.posts.ListPublished(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	pageNumber, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		pageNumber = 1
	}
	category := models.ParseCategory(c.Param("category"))
	page := views.Listing{Category: category, Page: pageNumber}.Apply(published)

	common.OK(c, http.StatusOK, gin.H{
		"category": category,
		"blogs":    page.Items,
		"page":     page.Number,
		"pages":    page.TotalPages,
		"total":    page.TotalItems,
	})
}

func (s *SiteModule) sitemap(c *gin.Context) {
	published, err := s.posts.ListPublished(c.Request.Context())
	if err != nil {
		common.Fail(c, err)
		return
	}

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	writeURL(&sitemap, s.domain+"/", "", "daily", "1.0")
	for _, category := range models.Categories {
		writeURL(&sitemap, s.domain+"/leia/"+string(category), "", "weekly", "0.7")
	}
	for _, post := range published {
		lastmod := post.CreatedAt
		if post.UpdatedAt != nil {
			lastmod = *post.UpdatedAt
		}
		writeURL(&sitemap, s.domain+"/blogs/"+post.ID, lastmod.UTC().Format(time.RFC3339), "monthly", "0.6")
	}

	sitemap.WriteString("</urlset>\n")

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, sitemap.String())
}

func writeURL(b *strings.Builder, loc, lastmod, changefreq, priority string) {
	b.WriteString("  <url>\n")
	b.WriteString("    <loc>" + loc + "</loc>\n")
	if lastmod != "" {
		b.WriteString("    <lastmod>" + lastmod + "</lastmod>\n")
	}
	b.WriteString("    <changefreq>" + changefreq + "</changefreq>\n")
	b.WriteString("    <priority>" + priority + "</priority>\n")
	b.WriteString("  </url>\n")
}
