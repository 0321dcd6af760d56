// handlers/play.go — player and spectator routes
package handlers

import (
	"password-heist-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPlayRoutes(
	app *fiber.App,
	teamService *services.TeamService,
	progressService *services.ProgressService,
	hintService *services.HintService,
	powerupService *services.PowerupService,
	roundService *services.RoundService,
	broadcaster *services.Broadcaster,
) {
	// Joining and state reconciliation
	app.Post("/join", teamService.Join)
	app.Get("/teams/:id/state", progressService.GetTeamState)

	// Gameplay
	app.Post("/verify-guess", progressService.VerifyGuess)
	app.Post("/use-hint", hintService.UseHint)

	// Powerups
	app.Get("/powerups", powerupService.ListPowerups)
	app.Post("/powerups", powerupService.SelectPowerups)
	app.Post("/powerups/use", powerupService.UsePowerup)

	// Spectators: standings poll + live event stream
	app.Get("/leaderboard", roundService.GetLeaderboard)
	app.Get("/events/stream", broadcaster.StreamGameEvents)
}
