package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Cedarline-Labs/civichub/internal/db"
	"github.com/Cedarline-Labs/civichub/internal/http/api"
	"github.com/Cedarline-Labs/civichub/internal/http/api/admin/packets"
	"github.com/Cedarline-Labs/civichub/internal/model"
)

type HouseholdController struct {
	store db.Store
}

func HouseholdModule(store db.Store) api.Module {
	ctl := &HouseholdController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/households", ctl.listHouseholds)
		c.POST("/households", ctl.createHousehold)
	})
}

func (h *HouseholdController) listHouseholds(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	list, err := h.store.ListHouseholds()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list households"}
	}
	return list, nil
}

func (h *HouseholdController) createHousehold(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateHouseholdRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	created, err := h.store.CreateHousehold(request.HeadName, request.Address, request.ContactEmail, request.ContactPhone)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create household"}
	}
	return created, nil
}
