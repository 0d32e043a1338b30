// Package api exposes the host over HTTP.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"liquidityPool/internal/dex"
	"liquidityPool/internal/host"
	"liquidityPool/internal/instruction"
	"liquidityPool/internal/storage"
	"liquidityPool/internal/token"
)

type initializePoolRequest struct {
	Payer   solana.PublicKey `json:"payer"`
	MintOne solana.PublicKey `json:"mint_one"`
	MintTwo solana.PublicKey `json:"mint_two"`
}

type addLiquidityRequest struct {
	Payer     solana.PublicKey `json:"payer"`
	MintOne   solana.PublicKey `json:"mint_one"`
	MintTwo   solana.PublicKey `json:"mint_two"`
	AmountOne uint64           `json:"amount_one,string"`
	AmountTwo uint64           `json:"amount_two,string"`
}

type removeLiquidityRequest struct {
	Payer   solana.PublicKey `json:"payer"`
	MintOne solana.PublicKey `json:"mint_one"`
	MintTwo solana.PublicKey `json:"mint_two"`
	Shares  uint64           `json:"shares,string"`
}

type swapRequest struct {
	Payer        solana.PublicKey `json:"payer"`
	MintOne      solana.PublicKey `json:"mint_one"`
	MintTwo      solana.PublicKey `json:"mint_two"`
	InputMint    solana.PublicKey `json:"input_mint"`
	AmountIn     uint64           `json:"amount_in,string"`
	MinAmountOut uint64           `json:"min_amount_out,string"`
}

type createMintRequest struct {
	Mint     solana.PublicKey `json:"mint"`
	Decimals uint8            `json:"decimals"`
}

type createTokenAccountRequest struct {
	Owner solana.PublicKey `json:"owner"`
	Mint  solana.PublicKey `json:"mint"`
}

type mintToRequest struct {
	Account solana.PublicKey `json:"account"`
	Amount  uint64           `json:"amount,string"`
}

// Server serves pool instructions and ledger setup calls.
type Server struct {
	host   *host.Host
	logger *zap.Logger
}

// NewServer returns a server over h.
func NewServer(h *host.Host, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{host: h, logger: logger}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.accessLog())

	g := router.Group("/v1")
	g.POST("/pools", s.initializePool)
	g.POST("/pools/add-liquidity", s.addLiquidity)
	g.POST("/pools/remove-liquidity", s.removeLiquidity)
	g.POST("/pools/swap", s.swap)
	g.GET("/pools/:mintOne/:mintTwo", s.getPool)
	g.POST("/mints", s.createMint)
	g.POST("/token-accounts", s.createTokenAccount)
	g.POST("/mint-to", s.mintTo)
	return router
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) initializePool(c *gin.Context) {
	var req initializePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.execute(c, instruction.InitializeLiquidityPool{
		Payer:   req.Payer,
		MintOne: req.MintOne,
		MintTwo: req.MintTwo,
	})
}

func (s *Server) addLiquidity(c *gin.Context) {
	var req addLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.execute(c, instruction.AddLiquidity{
		Payer:     req.Payer,
		MintOne:   req.MintOne,
		MintTwo:   req.MintTwo,
		AmountOne: req.AmountOne,
		AmountTwo: req.AmountTwo,
	})
}

func (s *Server) removeLiquidity(c *gin.Context) {
	var req removeLiquidityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.execute(c, instruction.RemoveLiquidity{
		Payer:   req.Payer,
		MintOne: req.MintOne,
		MintTwo: req.MintTwo,
		Shares:  req.Shares,
	})
}

func (s *Server) swap(c *gin.Context) {
	var req swapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	s.execute(c, instruction.Swap{
		Payer:        req.Payer,
		MintOne:      req.MintOne,
		MintTwo:      req.MintTwo,
		InputMint:    req.InputMint,
		AmountIn:     req.AmountIn,
		MinAmountOut: req.MinAmountOut,
	})
}

func (s *Server) execute(c *gin.Context, ix instruction.Instruction) {
	if ix.Signer().IsZero() {
		badRequest(c, errors.New("payer is required"))
		return
	}
	res, err := s.host.Execute(c.Request.Context(), ix)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getPool(c *gin.Context) {
	mintOne, err := solana.PublicKeyFromBase58(c.Param("mintOne"))
	if err != nil {
		badRequest(c, err)
		return
	}
	mintTwo, err := solana.PublicKeyFromBase58(c.Param("mintTwo"))
	if err != nil {
		badRequest(c, err)
		return
	}
	view, err := s.host.Pool(c.Request.Context(), mintOne, mintTwo)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) createMint(c *gin.Context) {
	var req createMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Mint.IsZero() {
		badRequest(c, errors.New("mint is required"))
		return
	}
	mint, err := s.host.CreateMint(c.Request.Context(), req.Mint, req.Decimals)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mint)
}

func (s *Server) createTokenAccount(c *gin.Context) {
	var req createTokenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Owner.IsZero() {
		badRequest(c, errors.New("owner is required"))
		return
	}
	account, err := s.host.CreateTokenAccount(c.Request.Context(), req.Owner, req.Mint)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *Server) mintTo(c *gin.Context) {
	var req mintToRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	account, err := s.host.MintTo(c.Request.Context(), req.Account, req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrAccountNotFound), errors.Is(err, token.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAccountExists), errors.Is(err, token.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, dex.ErrOverflowOrUnderflow),
		errors.Is(err, dex.ErrDuplicateAsset),
		errors.Is(err, dex.ErrFailedToAddLiquidity),
		errors.Is(err, dex.ErrFailedToRemoveLiquidity),
		errors.Is(err, dex.ErrInsufficientFunds),
		errors.Is(err, dex.ErrInsufficientLiquidity),
		errors.Is(err, dex.ErrSlippageExceeded),
		errors.Is(err, dex.ErrUnknownAsset),
		errors.Is(err, dex.ErrInvalidAmount),
		errors.Is(err, instruction.ErrPoolMismatch),
		errors.Is(err, token.ErrMintMismatch),
		errors.Is(err, token.ErrOwnerMismatch),
		errors.Is(err, token.ErrOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
