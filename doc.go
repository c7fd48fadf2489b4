// Package questnotify keeps a learning platform client's notifications in
// sync with the server.
//
// A Session owns one authenticated WebSocket connection (pkg/realtime) and
// one notification syncer per domain (pkg/notifications). Every pushed
// notification is treated as an invalidation signal: the session re-fetches
// the list and unread counter over REST instead of applying the payload.
//
//	var cfg questnotify.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	s, err := questnotify.New(cfg, token.Env("QUESTNOTIFY_TOKEN"))
//	if err != nil {
//		return err
//	}
//	defer s.Stop()
//
//	events := s.Subscribe(ctx)
//	if err := s.Start(ctx); err != nil {
//		return err
//	}
//	for ev := range events.C() {
//		switch ev.Kind {
//		case questnotify.EventSynced:
//			render(ev.Domain, ev.State)
//		case questnotify.EventError:
//			log.Warn("notification sync", logger.Error(ev.Err))
//		}
//	}
//
// Read-state operations (MarkAsRead, MarkAllAsRead) act on the domain of the
// current View. The admin domain exists only when Config.Admin is set.
package questnotify
