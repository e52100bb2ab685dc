package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roomboard-gateway/internal/model"
)

type watchTargetPayload struct {
	RoomID   int64  `json:"roomId" binding:"required"`
	TimeSlot string `json:"timeSlot" binding:"required"`
}

type putWatchRequest struct {
	Endpoint string               `json:"endpoint" binding:"required"`
	P256DH   string               `json:"p256dh" binding:"required"`
	Auth     string               `json:"auth" binding:"required"`
	Targets  []watchTargetPayload `json:"targets"`
}

// PutWatch handles the creation or replacement of a watch subscription and
// its watched slots.
func (h *Handler) PutWatch(c *gin.Context) {
	var req putWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subscription := model.WatchSubscription{
		Endpoint: req.Endpoint,
		P256DH:   req.P256DH,
		Auth:     req.Auth,
	}

	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Create(&subscription).Error; err != nil {
			return err
		}

		if err := tx.Where("endpoint = ?", req.Endpoint).Delete(&model.WatchTarget{}).Error; err != nil {
			return err
		}

		if len(req.Targets) == 0 {
			return nil
		}
		targets := make([]model.WatchTarget, 0, len(req.Targets))
		for _, t := range req.Targets {
			targets = append(targets, model.WatchTarget{
				Endpoint: req.Endpoint,
				RoomID:   t.RoomID,
				TimeSlot: t.TimeSlot,
			})
		}
		return tx.Create(&targets).Error
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusCreated)
}

type deleteWatchRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteWatch handles the deletion of a watch subscription.
func (h *Handler) DeleteWatch(c *gin.Context) {
	var req deleteWatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.store.DB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("endpoint = ?", req.Endpoint).Delete(&model.WatchTarget{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.WatchSubscription{Endpoint: req.Endpoint}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetWatch handles the retrieval of a watch subscription's targets.
func (h *Handler) GetWatch(c *gin.Context) {
	endpoint := c.Query("endpoint")
	if endpoint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint is required"})
		return
	}

	var subscription model.WatchSubscription
	if err := h.store.DB().Preload("Targets").First(&subscription, "endpoint = ?", endpoint).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "watch subscription not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	targets := make([]watchTargetPayload, len(subscription.Targets))
	for i, t := range subscription.Targets {
		targets[i] = watchTargetPayload{RoomID: t.RoomID, TimeSlot: t.TimeSlot}
	}

	c.JSON(http.StatusOK, gin.H{"targets": targets})
}
