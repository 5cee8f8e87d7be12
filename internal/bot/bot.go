package bot

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/beezlebub-bot/beezlebot-go/config"
	"github.com/beezlebub-bot/beezlebot-go/internal/db"
	"github.com/beezlebub-bot/beezlebot-go/internal/db/repositories/channelconf"
	"github.com/beezlebub-bot/beezlebot-go/internal/db/repositories/user"
	"github.com/beezlebub-bot/beezlebot-go/internal/healthcheck"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/commands"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/context_manager"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/notifier"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/ownership"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/profile"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/registry"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/requests"
	"github.com/beezlebub-bot/beezlebot-go/internal/services/scheduler"
	irc "github.com/fluffle/goirc/client"
	"github.com/redis/go-redis/v9"
)

type Identified struct {
	sync.Mutex
	identified bool
}

func StartBot() error {
	cfg := config.LoadConfigOrPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	identified := &Identified{}

	fmt.Printf("Starting bot with config: %+v\n", cfg.AppConfig)
	healthcheck.StartHealthcheck(ctx, cfg.AppConfig)

	database, err := db.NewDatabase(cfg.DBConfig)
	if err != nil {
		return err
	}
	redisClient, err := newRedisClient(cfg.RedisConfig)
	if err != nil {
		return err
	}

	ircConfig := irc.NewConfig(cfg.IRCConfig.Nick)
	ircConfig.SSL = cfg.IRCConfig.SSL
	ircConfig.SSLConfig = &tls.Config{InsecureSkipVerify: true}
	ircConfig.Server = fmt.Sprintf("%s:%d", cfg.IRCConfig.Host, cfg.IRCConfig.Port)

	conn := irc.Client(ircConfig)

	userRepo := user.NewUserRepository(database)
	channelRepo := channelconf.NewChannelConfRepository(database)
	ircNotifier := notifier.NewIRCNotifier(conn)
	requestStore := requests.NewRedisStore(redisClient)

	ownershipService := ownership.NewService(
		userRepo,
		requestStore,
		ircNotifier,
		cfg.BotConfig.DerelictTime(),
		cfg.BotConfig.RequestTimeout(),
	)
	registryService := registry.NewService(userRepo, ownershipService, cfg.BotConfig.DeleteTime())
	profileService := profile.NewService(userRepo, ownershipService, cfg.BotConfig.DateFormat)

	roster := NewRoster()

	handlers := &commands.Handlers{
		Ownership: ownershipService,
		Registry:  registryService,
		Profile:   profileService,
		Channels:  channelRepo,
		Responder: ircNotifier,
		Refs:      roster,
		BotNick:   cfg.IRCConfig.Nick,
		Network:   cfg.IRCConfig.Network,
	}

	controller := commands.NewCommandController(registryService, ircNotifier)
	controller.AddLifecycleCommand("!register", handlers.RegisterHandler)
	controller.AddLifecycleCommand("!unregister", handlers.UnregisterHandler)
	controller.AddLifecycleCommand("!update", handlers.UpdateHandler)
	controller.AddLifecycleCommand("!dump", handlers.DumpHandler)
	controller.AddCommand("!block", handlers.BlockHandler)
	controller.AddCommand("!control", handlers.ControlHandler)
	controller.AddCommand("!profile", handlers.ProfileHandler)
	controller.AddCommand("!welcome", handlers.WelcomeHandler)

	conn.HandleFunc(irc.CONNECTED, func(conn *irc.Conn, line *irc.Line) {
		fmt.Printf("Connected to %s\n", cfg.IRCConfig.Host)
		for _, channel := range cfg.IRCConfig.Channels {
			fmt.Printf("Joining channel %s\n", channel)
			conn.Join(channel)
		}
	})

	conn.HandleFunc("422", func(conn *irc.Conn, line *irc.Line) {
		for _, channel := range cfg.IRCConfig.Channels {
			conn.Join(channel)
		}
	})

	conn.HandleFunc("376", func(conn *irc.Conn, line *irc.Line) {
		for _, channel := range cfg.IRCConfig.Channels {
			conn.Join(channel)
		}
	})

	// NAMES replies keep the roster in sync with channel membership.
	conn.HandleFunc("353", func(conn *irc.Conn, line *irc.Line) {
		if len(line.Args) < 4 {
			return
		}
		roster.AddNamesReply(line.Args[2], line.Args[3])
	})

	conn.HandleFunc("366", func(conn *irc.Conn, line *irc.Line) {
		if len(line.Args) < 2 {
			return
		}
		roster.EndOfNames(line.Args[1])
	})

	conn.HandleFunc(irc.JOIN, func(conn *irc.Conn, line *irc.Line) {
		if len(line.Args) < 1 {
			return
		}
		channel := line.Args[0]

		if strings.EqualFold(line.Nick, cfg.IRCConfig.Nick) {
			fmt.Printf("Joined %s\n", channel)
			handleNickserv(cfg.IRCConfig, identified, conn)
			return
		}

		roster.Join(channel, line.Nick)
		if err := registryService.Join(context.Background(), line.Nick); err != nil {
			log.Printf("join for %s failed: %v", line.Nick, err)
		}
		greet(conn, channelRepo, cfg.IRCConfig.Network, channel, line.Nick)
	})

	conn.HandleFunc(irc.PART, func(conn *irc.Conn, line *irc.Line) {
		if len(line.Args) < 1 || strings.EqualFold(line.Nick, cfg.IRCConfig.Nick) {
			return
		}
		roster.Leave(line.Args[0], line.Nick)
		if err := registryService.Leave(context.Background(), line.Nick); err != nil {
			log.Printf("leave for %s failed: %v", line.Nick, err)
		}
	})

	conn.HandleFunc(irc.KICK, func(conn *irc.Conn, line *irc.Line) {
		if len(line.Args) < 2 {
			return
		}
		kicked := line.Args[1]
		roster.Leave(line.Args[0], kicked)
		if err := registryService.Leave(context.Background(), kicked); err != nil {
			log.Printf("leave for %s failed: %v", kicked, err)
		}
	})

	conn.HandleFunc(irc.QUIT, func(conn *irc.Conn, line *irc.Line) {
		if strings.EqualFold(line.Nick, cfg.IRCConfig.Nick) {
			return
		}
		// A quit ends every shared membership at once.
		memberships := roster.Quit(line.Nick)
		for i := 0; i < memberships; i++ {
			if err := registryService.Leave(context.Background(), line.Nick); err != nil {
				log.Printf("leave for %s failed: %v", line.Nick, err)
				break
			}
		}
	})

	conn.HandleFunc(irc.INVITE, func(conn *irc.Conn, line *irc.Line) {
		if len(line.Args) < 2 {
			return
		}
		fmt.Printf("Invited to %s\n", line.Args[1])
		conn.Join(line.Args[1])
	})

	conn.HandleFunc(irc.PRIVMSG, func(conn *irc.Conn, line *irc.Line) {
		if line == nil || len(line.Args) < 2 {
			return
		}

		ctx := context_manager.SetNickContext(context.Background(), line.Nick)
		ctx = context_manager.SetLineContext(ctx, line)

		err := controller.HandleCommand(ctx, line)
		if err != nil {
			fmt.Printf("Error handling command: %s\n", err.Error())
		}
	})

	sweep := scheduler.NewDailyTimer(cfg.BotConfig.SweepHour, func() {
		sweepCtx, sweepCancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer sweepCancel()
		if err := registryService.Sweep(sweepCtx, roster.Flatten()); err != nil {
			log.Printf("nightly sweep failed: %v", err)
		}
	})
	defer sweep.Stop()

	quit := make(chan bool)
	conn.HandleFunc(irc.DISCONNECTED, func(conn *irc.Conn, line *irc.Line) {
		quit <- true
	})

	if err := conn.Connect(); err != nil {
		fmt.Printf("Connection error: %s\n", err.Error())
		return err
	}

	<-quit
	return nil
}

func greet(conn *irc.Conn, repo channelconf.ChannelConfRepository, network, channel, nick string) {
	conf, err := repo.GetConf(context.Background(), network, channel)
	if err != nil {
		log.Printf("welcome lookup for %s failed: %v", channel, err)
		return
	}
	if conf == nil || !conf.WelcomeEnabled || conf.WelcomeMessage == "" {
		return
	}
	conn.Privmsg(channel, fmt.Sprintf("%s: %s", nick, conf.WelcomeMessage))
}

func newRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URI)
	if err != nil {
		return nil, err
	}
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

func handleNickserv(cfg config.IRCConfig, identified *Identified, c *irc.Conn) {
	identified.Lock()
	defer identified.Unlock()
	if !identified.identified && cfg.NickservPassword != "" {
		command := fmt.Sprintf(cfg.NickservCommand, cfg.NickservPassword)
		c.Raw(command)
		identified.identified = true
	}
}
