package bot

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/shopspring/decimal"

	"croupier/internal/analytics"
	"croupier/internal/casino"
	"croupier/internal/games"
	"croupier/internal/storage"
)

// maxButtons is Discord's cap on buttons per message (5 rows of 5).
const maxButtons = 25

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Croupier"},
	}
}

func (b *Bot) errorEmbed(title string, err error) *discordgo.MessageEmbed {
	return b.commandEmbed(title, errorText(err), b.cfg.Notifications.EmbedColors.Error, nil)
}

// errorText maps the casino error taxonomy to player-facing text.
func errorText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, casino.ErrBetTooSmall), errors.Is(err, casino.ErrBetTooLarge):
		return "Bet outside the table limits: " + err.Error() + "."
	case errors.Is(err, casino.ErrInsufficientBalance):
		return "You don't have enough chips for that bet."
	case errors.Is(err, casino.ErrRateLimited):
		return "You're betting too fast. Take a breath and try again."
	case errors.Is(err, casino.ErrCasinoDisabled):
		return "The casino is closed in this server."
	case errors.Is(err, casino.ErrNotSessionOwner):
		return "That game belongs to someone else."
	case errors.Is(err, casino.ErrSessionNotFound), errors.Is(err, games.ErrGameOver):
		return "This round is over."
	case errors.Is(err, casino.ErrCreditFailed):
		return "Your winnings could not be paid out. The round was logged; contact a moderator."
	case errors.Is(err, games.ErrNothingRevealed):
		return "Reveal at least one tile before cashing out."
	case errors.Is(err, games.ErrOutOfBounds), errors.Is(err, games.ErrInvalidAction), errors.Is(err, errBadCustomID):
		return "That move isn't available right now."
	case errors.Is(err, games.ErrInvalidChoice):
		return "Unknown choice."
	default:
		return "Something went wrong. Try again later."
	}
}

func (b *Bot) outcomeColor(outcome games.Outcome) int {
	colors := b.cfg.Notifications.EmbedColors
	switch {
	case outcome.Won():
		return colors.Win
	case outcome.Winnings == outcome.Wager:
		return colors.Neutral
	default:
		return colors.Loss
	}
}

func outcomeLine(result casino.Result) string {
	outcome := result.Outcome
	profit := outcome.Profit()
	sign := ""
	if profit > 0 {
		sign = "+"
	}
	return fmt.Sprintf("**%s** · bet %d · paid %d (%s%d) · balance %d",
		kindLabel(outcome.Kind), outcome.Wager, outcome.Winnings, sign, profit, result.Balance)
}

func kindLabel(kind games.Kind) string {
	switch kind {
	case games.KindWin:
		return "Win"
	case games.KindLose:
		return "Loss"
	case games.KindPush:
		return "Push"
	case games.KindBust:
		return "Bust"
	case games.KindBlackjack:
		return "Blackjack!"
	case games.KindCleared:
		return "Board cleared"
	case games.KindExploded:
		return "Boom"
	case games.KindCashedOut:
		return "Cashed out"
	case games.KindCrashed:
		return "Crashed"
	default:
		return string(kind)
	}
}

func (b *Bot) slotsEmbed(result casino.SlotsResult) *discordgo.MessageEmbed {
	description := fmt.Sprintf("[ %s | %s | %s ]\n\n%s", result.Reels[0], result.Reels[1], result.Reels[2], outcomeLine(result.Result))
	return b.commandEmbed("🎰 Slots", description, b.outcomeColor(result.Outcome), nil)
}

func (b *Bot) slotsPaytableField() *discordgo.MessageEmbedField {
	var lines []string
	for _, line := range games.SlotsPaytable() {
		lines = append(lines, fmt.Sprintf("%s%s%s ×%s", line.Symbol, line.Symbol, line.Symbol, line.Multiplier.String()))
	}
	return &discordgo.MessageEmbedField{Name: "Paytable", Value: strings.Join(lines, "\n")}
}

func (b *Bot) coinflipEmbed(result casino.CoinflipResult) *discordgo.MessageEmbed {
	description := fmt.Sprintf("You called **%s**, the coin landed **%s**.\n\n%s", result.Pick, result.Landed, outcomeLine(result.Result))
	return b.commandEmbed("🪙 Coinflip", description, b.outcomeColor(result.Outcome), nil)
}

func (b *Bot) diceEmbed(result casino.DiceResult) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "You", Value: "🎲 " + strconv.Itoa(result.PlayerRoll), Inline: true},
		{Name: "Dealer", Value: "🎲 " + strconv.Itoa(result.DealerRoll), Inline: true},
	}
	return b.commandEmbed("🎲 Dice", outcomeLine(result.Result), b.outcomeColor(result.Outcome), fields)
}

func formatHand(cards []games.Card, hideHole bool) string {
	parts := make([]string, len(cards))
	for i, card := range cards {
		if hideHole && i == 1 {
			parts[i] = "🂠"
			continue
		}
		parts[i] = "`" + card.String() + "`"
	}
	return strings.Join(parts, " ")
}

func (b *Bot) blackjackEmbed(view casino.BlackjackView) *discordgo.MessageEmbed {
	dealerValue := strconv.Itoa(view.DealerValue)
	if view.HoleHidden() && len(view.Dealer) > 0 {
		dealerValue = strconv.Itoa(games.HandValue(view.Dealer[:1])) + " + ?"
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: fmt.Sprintf("Your hand (%d)", view.PlayerValue), Value: formatHand(view.Player, false), Inline: true},
		{Name: fmt.Sprintf("Dealer (%s)", dealerValue), Value: formatHand(view.Dealer, view.HoleHidden()), Inline: true},
	}
	description := fmt.Sprintf("Bet %d. Hit, stand or double down.", view.Wager)
	color := b.cfg.Notifications.EmbedColors.Neutral
	if view.Result != nil {
		description = outcomeLine(*view.Result)
		color = b.outcomeColor(view.Result.Outcome)
	}
	return b.commandEmbed("🃏 Blackjack", description, color, fields)
}

func blackjackComponents(view casino.BlackjackView) []discordgo.MessageComponent {
	if view.Result != nil || view.SessionID == "" {
		return []discordgo.MessageComponent{}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Hit", Style: discordgo.PrimaryButton, CustomID: buildCustomID(games.GameBlackjack, actionHit, view.SessionID)},
			discordgo.Button{Label: "Stand", Style: discordgo.SecondaryButton, CustomID: buildCustomID(games.GameBlackjack, actionStand, view.SessionID)},
			discordgo.Button{Label: "Double", Style: discordgo.SuccessButton, CustomID: buildCustomID(games.GameBlackjack, actionDouble, view.SessionID), Disabled: !view.CanDouble},
		}},
	}
}

func (b *Bot) minesEmbed(view casino.MinesView) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Difficulty", Value: fmt.Sprintf("%s (%d mines)", view.Difficulty.Name, view.Difficulty.Mines), Inline: true},
		{Name: "Safe tiles", Value: fmt.Sprintf("%d / %d", view.SafeRevealed, view.TotalSafe), Inline: true},
		{Name: "Multiplier", Value: "×" + view.Multiplier.StringFixed(2), Inline: true},
	}
	description := fmt.Sprintf("Bet %d. Reveal tiles, cash out before you hit a mine.", view.Wager)
	color := b.cfg.Notifications.EmbedColors.Neutral
	if view.Result != nil {
		description = minesBoardText(view) + "\n\n" + outcomeLine(*view.Result)
		color = b.outcomeColor(view.Result.Outcome)
	}
	return b.commandEmbed("💣 Minesweeper", description, color, fields)
}

func minesBoardText(view casino.MinesView) string {
	var rows []string
	for _, row := range view.Cells {
		var line strings.Builder
		for _, cell := range row {
			line.WriteString(cellLabel(cell))
		}
		rows = append(rows, line.String())
	}
	return strings.Join(rows, "\n")
}

func cellLabel(cell casino.Cell) string {
	switch {
	case cell.Mine:
		return "💣"
	case cell.Revealed:
		return "💎"
	default:
		return "⬜"
	}
}

// minesComponents lays the board out as buttons. When the board plus the cash-out button
// would pass the button cap, cash-out is left out and sent separately.
func minesComponents(view casino.MinesView) (board []discordgo.MessageComponent, cashOutSeparate bool) {
	if view.Result != nil || view.SessionID == "" {
		return []discordgo.MessageComponent{}, false
	}
	size := view.Difficulty.Size
	for row := 0; row < size; row++ {
		buttons := make([]discordgo.MessageComponent, 0, size)
		for col := 0; col < size; col++ {
			cell := view.Cells[row][col]
			style := discordgo.SecondaryButton
			if cell.Revealed {
				style = discordgo.SuccessButton
			}
			buttons = append(buttons, discordgo.Button{
				Label:    cellLabel(cell),
				Style:    style,
				Disabled: cell.Revealed,
				CustomID: buildCustomID(games.GameMinesweeper, actionReveal, view.SessionID, strconv.Itoa(row), strconv.Itoa(col)),
			})
		}
		board = append(board, discordgo.ActionsRow{Components: buttons})
	}

	cashOut := minesCashOutButton(view)
	if size*size+1 > maxButtons {
		return board, true
	}
	last := board[len(board)-1].(discordgo.ActionsRow)
	if len(last.Components) < 5 {
		last.Components = append(last.Components, cashOut)
		board[len(board)-1] = last
		return board, false
	}
	board = append(board, discordgo.ActionsRow{Components: []discordgo.MessageComponent{cashOut}})
	return board, false
}

func minesCashOutButton(view casino.MinesView) discordgo.Button {
	return discordgo.Button{
		Label:    "Cash out",
		Style:    discordgo.DangerButton,
		Disabled: view.SafeRevealed == 0,
		CustomID: buildCustomID(games.GameMinesweeper, actionCashOut, view.SessionID),
	}
}

func (b *Bot) crashEmbed(view casino.CrashView) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Multiplier", Value: "×" + view.Multiplier.StringFixed(2), Inline: true},
		{Name: "Potential payout", Value: casinoPayout(view), Inline: true},
	}
	description := fmt.Sprintf("Bet %d. Cash out before the rocket crashes!", view.Wager)
	color := b.cfg.Notifications.EmbedColors.Neutral
	if view.Result != nil {
		description = fmt.Sprintf("Crash point ×%s\n\n%s", view.CrashPoint.StringFixed(2), outcomeLine(*view.Result))
		color = b.outcomeColor(view.Result.Outcome)
	}
	return b.commandEmbed("🚀 Crash", description, color, fields)
}

func casinoPayout(view casino.CrashView) string {
	if view.Result != nil {
		return strconv.FormatInt(view.Result.Outcome.Winnings, 10)
	}
	return view.Multiplier.Mul(decimal.NewFromInt(view.Wager)).Floor().String()
}

func crashComponents(view casino.CrashView) []discordgo.MessageComponent {
	if view.Result != nil || view.State != games.CrashRunning {
		return []discordgo.MessageComponent{}
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Cash out", Style: discordgo.SuccessButton, CustomID: buildCustomID(games.GameCrash, actionCashOut, view.SessionID)},
		}},
	}
}

func (b *Bot) statsEmbed(userID string, balance int64, stats storage.UserStats) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Balance", Value: strconv.FormatInt(balance, 10), Inline: true},
		{Name: "Games played", Value: strconv.FormatInt(stats.GamesPlayed, 10), Inline: true},
		{Name: "Total bet", Value: strconv.FormatInt(stats.TotalBet, 10), Inline: true},
		{Name: "Total won", Value: strconv.FormatInt(stats.TotalWon, 10), Inline: true},
		{Name: "Net", Value: strconv.FormatInt(stats.Net(), 10), Inline: true},
	}
	return b.commandEmbed("📊 Casino stats", "<@"+userID+">", b.cfg.Notifications.EmbedColors.Neutral, fields)
}

func (b *Bot) leaderboardEmbed(accounts []storage.Account) *discordgo.MessageEmbed {
	if len(accounts) == 0 {
		return b.commandEmbed("🏆 Leaderboard", "Nobody has played yet.", b.cfg.Notifications.EmbedColors.Neutral, nil)
	}
	lines := make([]string, len(accounts))
	for i, account := range accounts {
		lines[i] = fmt.Sprintf("%d. <@%s> · %d", i+1, account.UserID, account.Balance)
	}
	return b.commandEmbed("🏆 Leaderboard", strings.Join(lines, "\n"), b.cfg.Notifications.EmbedColors.Neutral, nil)
}

func (b *Bot) reportEmbed(report analytics.Report, days int) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Rounds", Value: strconv.Itoa(report.Rounds), Inline: true},
		{Name: "Players", Value: strconv.Itoa(report.Players), Inline: true},
		{Name: "Wagered", Value: strconv.FormatInt(report.Wagered, 10), Inline: true},
		{Name: "Paid out", Value: strconv.FormatInt(report.PaidOut, 10), Inline: true},
		{Name: "House net", Value: strconv.FormatInt(report.HouseNet, 10), Inline: true},
	}
	if len(report.ByGame) > 0 {
		lines := make([]string, len(report.ByGame))
		for i, game := range report.ByGame {
			lines[i] = fmt.Sprintf("%s: %d rounds, net %d", game.Game, game.Rounds, game.HouseNet)
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "By game", Value: strings.Join(lines, "\n")})
	}
	if len(report.ByOutcome) > 0 {
		kinds := make([]string, 0, len(report.ByOutcome))
		for kind := range report.ByOutcome {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		lines := make([]string, len(kinds))
		for i, kind := range kinds {
			lines[i] = fmt.Sprintf("%s: %d", kindLabel(games.Kind(kind)), report.ByOutcome[kind])
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "By outcome", Value: strings.Join(lines, "\n")})
	}
	if report.BiggestWin.Winnings > 0 {
		win := report.BiggestWin
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Biggest win",
			Value: fmt.Sprintf("<@%s> won %d on %s (bet %d)", win.UserID, win.Winnings, win.Game, win.Wager),
		})
	}
	return b.commandEmbed("📈 Casino report", fmt.Sprintf("Last %d days", days), b.cfg.Notifications.EmbedColors.Neutral, fields)
}

func (b *Bot) settingsEmbed(settings storage.GuildSettings, limits casino.Limits) *discordgo.MessageEmbed {
	channel := "not set"
	if settings.CasinoChannel != "" {
		channel = "<#" + settings.CasinoChannel + ">"
	}
	fields := []*discordgo.MessageEmbedField{
		{Name: "Enabled", Value: strconv.FormatBool(settings.Enabled), Inline: true},
		{Name: "Announcements", Value: channel, Inline: true},
		{Name: "Effective limits", Value: fmt.Sprintf("%d to %d", limits.MinBet, limits.MaxBet), Inline: true},
	}
	return b.commandEmbed("⚙️ Casino settings", "", b.cfg.Notifications.EmbedColors.Neutral, fields)
}

func (b *Bot) bigWinEmbed(record storage.GameRecord) *discordgo.MessageEmbed {
	description := fmt.Sprintf("<@%s> turned %d into **%d** on %s!", record.UserID, record.Wager, record.Winnings, record.Game)
	return b.commandEmbed("💰 Big win", description, b.cfg.Notifications.EmbedColors.Win, nil)
}
