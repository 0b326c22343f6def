package api

import (
	"net/http"

	"github.com/Adda-Baaj/khobor-reader/internal/app"
	"github.com/Adda-Baaj/khobor-reader/internal/domain"
	"github.com/gin-gonic/gin"
)

type dayView struct {
	Date     domain.DateKey   `json:"date"`
	Count    int              `json:"count"`
	Articles []domain.Article `json:"articles,omitempty"`
}

type newsController struct {
	reader Reader
}

// RegisterNewsRoutes registers the archive read and pagination routes.
func RegisterNewsRoutes(r *gin.Engine, reader Reader) {
	ctl := &newsController{reader: reader}
	v1 := r.Group("/api/v1")
	v1.GET("/news", ctl.listDays)
	v1.GET("/news/:date", ctl.getDay)
	v1.POST("/news/more", ctl.loadMore)
	v1.GET("/status", ctl.status)
	v1.POST("/status/connection", ctl.testConnection)
}

// listDays returns loaded days newest first; ?expand=true inlines the articles.
func (n *newsController) listDays(c *gin.Context) {
	expand := c.Query("expand") == "true"
	keys := n.reader.SortedDateKeys()

	days := make([]dayView, 0, len(keys))
	for _, key := range keys {
		bucket := n.reader.Bucket(key)
		day := dayView{Date: key, Count: len(bucket)}
		if expand {
			day.Articles = bucket
		}
		days = append(days, day)
	}

	c.JSON(http.StatusOK, gin.H{
		"days":   days,
		"status": n.reader.Status(),
	})
}

func (n *newsController) getDay(c *gin.Context) {
	key, err := domain.ParseDateKey(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be formatted YYYY-MM-DD"})
		return
	}
	bucket := n.reader.Bucket(key)
	if len(bucket) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no articles loaded for " + key.String()})
		return
	}
	c.JSON(http.StatusOK, dayView{Date: key, Count: len(bucket), Articles: bucket})
}

// loadMore is the boundary signal. A dropped signal is not an error: the response
// carries the page state that caused it.
func (n *newsController) loadMore(c *gin.Context) {
	accepted := n.reader.Signal()
	code := http.StatusOK
	if accepted {
		code = http.StatusAccepted
	}
	c.JSON(code, gin.H{
		"accepted": accepted,
		"page":     n.reader.Status().Page,
	})
}

func (n *newsController) status(c *gin.Context) {
	c.JSON(http.StatusOK, n.reader.Status())
}

// testConnection runs an on-demand remote check. A failed check is reported in the body,
// not as an HTTP error.
func (n *newsController) testConnection(c *gin.Context) {
	c.JSON(http.StatusOK, n.reader.TestConnection(c.Request.Context()))
}

var _ Reader = (*app.Session)(nil)
