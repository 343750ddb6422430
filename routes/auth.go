package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"ai-sales-brain/internal/auth"
	"ai-sales-brain/models"
	"ai-sales-brain/utils"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func SetupAuthRoutes(router *gin.Engine, db *mongo.Database, tokens *auth.TokenService) {
	usersCollection := db.Collection("users")

	group := router.Group("/api/v1/auth")

	group.POST("/login", func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		var user models.User
		err := usersCollection.FindOne(ctx, bson.M{"username": req.Username}).Decode(&user)
		if err != nil || !utils.CheckPassword(req.Password, user.PasswordHash) {
			utils.RespondWithUnauthorized(c, "Invalid username or password")
			return
		}

		token, exp, err := tokens.IssueToken(ctx, user.ID.Hex(), user.Username)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to issue token", nil)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"access_token": token,
			"expires_at":   exp,
			"user": models.UserInfo{
				ID:       user.ID.Hex(),
				Username: user.Username,
				Name:     user.Name,
				Email:    user.Email,
				Role:     user.Role,
			},
		})
	})
}
