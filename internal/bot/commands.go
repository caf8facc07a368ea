package bot

import "github.com/bwmarrin/discordgo"

func betOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        "bet",
		Description: "Chips to wager",
		Required:    true,
	}
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	minDays := 1.0
	return []*discordgo.ApplicationCommand{
		{
			Name:        "balance",
			Description: "Show your chip balance",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Whose balance", Required: false},
			},
		},
		{
			Name:        "slots",
			Description: "Spin the slot machine",
			Options:     []*discordgo.ApplicationCommandOption{betOption()},
		},
		{
			Name:        "coinflip",
			Description: "Call heads or tails, double or nothing",
			Options: []*discordgo.ApplicationCommandOption{
				betOption(),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "side",
					Description: "heads or tails",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "heads", Value: "heads"},
						{Name: "tails", Value: "tails"},
					},
				},
			},
		},
		{
			Name:        "dice",
			Description: "Roll against the dealer",
			Options:     []*discordgo.ApplicationCommandOption{betOption()},
		},
		{
			Name:        "blackjack",
			Description: "Play a hand of blackjack",
			Options:     []*discordgo.ApplicationCommandOption{betOption()},
		},
		{
			Name:        "minesweeper",
			Description: "Reveal safe tiles and cash out before a mine",
			Options: []*discordgo.ApplicationCommandOption{
				betOption(),
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "difficulty",
					Description: "Board size and mine count",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "easy (3x3, 3 mines, up to x1.5)", Value: "easy"},
						{Name: "medium (4x4, 6 mines, up to x2)", Value: "medium"},
						{Name: "hard (5x5, 10 mines, up to x3)", Value: "hard"},
					},
				},
			},
		},
		{
			Name:        "crash",
			Description: "Ride the multiplier and cash out before it crashes",
			Options:     []*discordgo.ApplicationCommandOption{betOption()},
		},
		{
			Name:        "casino",
			Description: "Casino stats and administration",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stats",
					Description: "Lifetime casino stats",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Whose stats", Required: false},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "report",
					Description: "House report for this server",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "days", Description: "Look-back window", Required: false, MinValue: &minDays, MaxValue: 90},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "leaderboard",
					Description: "Richest players",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "settings",
					Description: "View or change casino settings",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Description: "Big win announcements", Required: false},
						{Type: discordgo.ApplicationCommandOptionBoolean, Name: "enabled", Description: "Open or close the casino", Required: false},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "min_bet", Description: "Server minimum bet (0 = global)", Required: false},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "max_bet", Description: "Server maximum bet (0 = global)", Required: false},
					},
				},
			},
		},
	}
}

// registerCommands syncs the command set: edits existing ones, creates missing ones and
// deletes leftovers. With CommandGuildID set they are registered on that guild only.
func (b *Bot) registerCommands() error {
	commands := commandDefinitions()
	appID := b.session.State.User.ID
	scope := b.cfg.CommandGuildID

	existing, err := b.session.ApplicationCommands(appID, scope)
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, scope, cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, scope, current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, scope, cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, scope, cmd.ID)
	}
	return nil
}
