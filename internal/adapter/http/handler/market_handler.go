package handler

import (
	"jetwallet/internal/adapter/http/dto"
	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/ports"
	"jetwallet/pkg/apperror"
	"jetwallet/pkg/response"

	"github.com/gin-gonic/gin"
)

// MarketHandler serves the asset catalog and price oracle.
type MarketHandler struct {
	priceSvc ports.PriceService
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(priceSvc ports.PriceService) *MarketHandler {
	return &MarketHandler{priceSvc: priceSvc}
}

// ListPrices handles GET /api/v1/prices.
func (h *MarketHandler) ListPrices(c *gin.Context) {
	response.OK(c, h.priceSvc.Snapshot())
}

// GetPrice handles GET /api/v1/prices/:coin.
func (h *MarketHandler) GetPrice(c *gin.Context) {
	coin := domain.CoinID(dto.NormalizeCode(c.Param("coin")))
	if !coin.IsValid() {
		response.Error(c, apperror.ErrInvalidAsset())
		return
	}

	snapshot := h.priceSvc.Snapshot()
	response.OK(c, dto.PriceResponse{
		Coin:      coin,
		Price:     snapshot.Price(coin),
		Source:    snapshot.Source,
		UpdatedAt: snapshot.UpdatedAt,
	})
}

// ListAssets handles GET /api/v1/assets.
func (h *MarketHandler) ListAssets(c *gin.Context) {
	response.OK(c, dto.AssetsResponse{
		Coins: domain.Coins(),
		Fiats: domain.FiatIDs(),
	})
}
