package bot

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"croupier/internal/analytics"
	"croupier/internal/casino"
	"croupier/internal/config"
	"croupier/internal/modules/audit"
	"croupier/internal/storage"
)

// Store is the part of the ledger the Discord layer reads directly.
type Store interface {
	GetGuildSettings(ctx context.Context, guildID string, defaults storage.GuildSettings) (storage.GuildSettings, error)
	UpsertGuildSettings(ctx context.Context, settings storage.GuildSettings) error
	Stats(ctx context.Context, userID string) (storage.UserStats, error)
	TopBalances(ctx context.Context, limit int) ([]storage.Account, error)
	CleanupGameLog(ctx context.Context, retentionDays int) (int64, error)
}

type Bot struct {
	cfg       config.Config
	logger    *zap.Logger
	store     Store
	casino    *casino.Service
	audit     *audit.Logger
	analytics *analytics.Service
	session   *discordgo.Session
	rounds    *rounds
	stopOnce  sync.Once
	stop      chan struct{}
}

func New(cfg config.Config, logger *zap.Logger, store Store, service *casino.Service, auditLogger *audit.Logger, analyticsService *analytics.Service) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		casino:    service,
		audit:     auditLogger,
		analytics: analyticsService,
		session:   session,
		rounds:    newRounds(),
		stop:      make(chan struct{}),
	}

	if b.audit != nil && cfg.Notifications.BigWinsEnabled {
		b.audit.SetNotifier(cfg.Notifications.BigWinMultiplier, func(ctx context.Context, record storage.GameRecord) {
			b.notifyBigWin(ctx, record)
		})
	}
	return b, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}
	if err := b.registerCommands(); err != nil {
		return err
	}

	b.startGameLogPrune()
	return nil
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	b.stopOnce.Do(func() { close(b.stop) })
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", event.User.Username), zap.Int("guilds", len(event.Guilds)))
}

// startGameLogPrune drops game log rows past retention once a day.
func (b *Bot) startGameLogPrune() {
	if b.cfg.RetentionDays <= 0 {
		return
	}
	go func() {
		select {
		case <-time.After(30 * time.Second):
		case <-b.stop:
			return
		}
		b.pruneGameLog()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.pruneGameLog()
			case <-b.stop:
				return
			}
		}
	}()
}

func (b *Bot) pruneGameLog() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	removed, err := b.store.CleanupGameLog(ctx, b.cfg.RetentionDays)
	if err != nil {
		b.logger.Warn("game log cleanup failed", zap.Error(err))
		return
	}
	b.logger.Info("game log pruned", zap.Int64("removed", removed), zap.Int("retention_days", b.cfg.RetentionDays))
}

func (b *Bot) notifyBigWin(ctx context.Context, record storage.GameRecord) {
	if record.GuildID == "" {
		return
	}
	settings := b.guildSettings(ctx, record.GuildID)
	if settings.CasinoChannel == "" {
		return
	}
	if _, err := b.session.ChannelMessageSendEmbed(settings.CasinoChannel, b.bigWinEmbed(record)); err != nil {
		b.logger.Debug("big win announcement failed", zap.String("guild_id", record.GuildID), zap.Error(err))
	}
}

func (b *Bot) guildSettings(ctx context.Context, guildID string) storage.GuildSettings {
	defaults := storage.GuildSettings{GuildID: guildID, Enabled: true}
	settings, err := b.store.GetGuildSettings(ctx, guildID, defaults)
	if err != nil {
		b.logger.Warn("guild settings fallback", zap.Error(err))
		return defaults
	}
	return settings
}

func playerFrom(interaction *discordgo.InteractionCreate) casino.Player {
	player := casino.Player{GuildID: interaction.GuildID}
	switch {
	case interaction.Member != nil && interaction.Member.User != nil:
		player.UserID = interaction.Member.User.ID
	case interaction.User != nil:
		player.UserID = interaction.User.ID
	}
	return player
}

func canManageGuild(interaction *discordgo.InteractionCreate) bool {
	if interaction.Member == nil {
		return false
	}
	perms := interaction.Member.Permissions
	return perms&discordgo.PermissionAdministrator != 0 || perms&discordgo.PermissionManageServer != 0
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	b.respondComponents(session, interaction, embed, nil, ephemeral)
}

func (b *Bot) respondComponents(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	if err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
			Flags:      flags,
		},
	}); err != nil {
		b.logger.Warn("interaction response failed", zap.Error(err))
	}
}

// updateMessage rewrites the message a component belongs to.
func (b *Bot) updateMessage(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	if err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	}); err != nil {
		b.logger.Warn("message update failed", zap.Error(err))
	}
}

// editOriginal redraws a command's original response. Failures are cosmetic and ignored.
func (b *Bot) editOriginal(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	embeds := []*discordgo.MessageEmbed{embed}
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	if _, err := session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{
		Embeds:     &embeds,
		Components: &components,
	}); err != nil {
		b.logger.Debug("interaction edit failed", zap.Error(err))
	}
}

// withCreditWarning flags a settled round whose winnings were not paid.
func withCreditWarning(embed *discordgo.MessageEmbed, err error) *discordgo.MessageEmbed {
	if err == nil || !errors.Is(err, casino.ErrCreditFailed) {
		return embed
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "⚠️ Payout failed", Value: errorText(err)})
	return embed
}
