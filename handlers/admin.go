// handlers/admin.go — operator console routes, all behind the admin token gate
package handlers

import (
	"password-heist-system/middleware"
	"password-heist-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(
	app *fiber.App,
	teamService *services.TeamService,
	puzzleService *services.PuzzleService,
	sessionService *services.SessionService,
	roundService *services.RoundService,
) {
	admin := app.Group("/admin", middleware.AdminAuthMiddleware())

	// Round lifecycle
	admin.Post("/start-round", roundService.StartRound)
	admin.Post("/advance-round", roundService.AdvanceRound)
	admin.Post("/end-game", roundService.EndGame)
	admin.Post("/reset-game", roundService.ResetGame)
	admin.Post("/grant-extra-life", roundService.GrantExtraLife)

	// Team / code management
	admin.Get("/teams", teamService.ListTeams)
	admin.Post("/codes/generate", teamService.GenerateCodes)
	admin.Post("/codes/delete", teamService.DeleteCodes)
	admin.Post("/teams/kick-regenerate", teamService.KickRegenerate)
	admin.Post("/teams/reset-session", teamService.ResetSession)
	admin.Post("/teams/bypass", teamService.Bypass)
	admin.Post("/grant-hints", teamService.GrantHints)

	// Puzzle catalog
	admin.Post("/puzzles", puzzleService.CreatePuzzle)
	admin.Get("/puzzles", puzzleService.ListPuzzles)
	admin.Post("/powerups/toggle", puzzleService.TogglePowerups)

	// Tournament sessions
	admin.Post("/sessions", sessionService.CreateSession)
	admin.Get("/sessions", sessionService.ListSessions)
	admin.Patch("/sessions", sessionService.UpdateSession)
}
