package dashboard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cataloro/probe/apperr"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// TimeFormatter renders timestamps in the html views.
func TimeFormatter(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// GetAll returns the most recent runs.
func (s Service) GetAll(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	runs, err := s.RecentRuns(limit, offset)
	if err != nil {
		log.WithFields(logrus.Fields{
			"error":   err.Error(),
			"details": "error in database",
		}).Info("error in database")
		c.JSON(apperr.Status(apperr.ErrDatabase), apperr.Payload(apperr.Wrap(err, apperr.ErrDatabase, "")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": runs, "count": len(runs)})
}

// GetID returns one run with its per-check records.
func (s Service) GetID(c *gin.Context) {
	id := c.Param("id")
	run, records, err := s.RunByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, apperr.Payload(apperr.Wrap(err, apperr.ErrNotFound, "no run with this id")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "checks": records})
}

// RunsCountEndpoint returns how many runs are stored.
func (s Service) RunsCountEndpoint(c *gin.Context) {
	count, err := s.RunsCount()
	if err != nil {
		log.WithFields(logrus.Fields{
			"error":   err.Error(),
			"details": "error in database",
		}).Info("error in database")
		c.JSON(apperr.Status(apperr.ErrDatabase), apperr.Payload(apperr.Wrap(err, apperr.ErrDatabase, "")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": count})
}

// Failures aggregates which checks fail the most.
func (s Service) Failures(c *gin.Context) {
	counts, err := s.FailuresByCheck()
	if err != nil {
		c.JSON(apperr.Status(apperr.ErrDatabase), apperr.Payload(apperr.Wrap(err, apperr.ErrDatabase, "")))
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": counts})
}

// BrowserDashboard renders the html run history.
func (s Service) BrowserDashboard(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	const perPage = 20
	runs, err := s.RecentRuns(perPage, (page-1)*perPage)
	if err != nil {
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	count, _ := s.RunsCount()
	pages := int(count) / perPage
	if int(count)%perPage != 0 {
		pages++
	}
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"runs":  runs,
		"page":  page,
		"pages": pages,
	})
}
