package main

import (
	"errors"
	"fmt"

	"inertus/internal/bootstrap"
	"inertus/internal/database"
	"inertus/internal/seed"

	"github.com/spf13/cobra"
)

var (
	seedOpts  = seed.DefaultOptions()
	seedClean bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demo data",
	Long: fmt.Sprintf(`Creates fake users, posts, comments, groups, resources and messages.
Every seeded user has the password %q. Refuses to run in production.`, seed.DefaultPassword),
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRuntime(bootstrap.Options{SkipRedis: true}, func(rt *bootstrap.Runtime) error {
			if rt.Config.IsProduction() {
				return errors.New("seeding is disabled in production")
			}
			if err := database.Migrate(rt.DB); err != nil {
				return err
			}

			s := seed.NewSeeder(rt.DB, seedOpts.Seed)
			if seedClean {
				if err := s.ClearAll(); err != nil {
					return err
				}
			}
			res, err := s.Run(seedOpts)
			if err != nil {
				return err
			}
			cmd.Printf("seeded %d users, %d posts, %d comments, %d groups, %d resources, %d messages\n",
				res.Users, res.Posts, res.Comments, res.Groups, res.Resources, res.Messages)
			return nil
		})
	},
}

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.Users, "users", seedOpts.Users, "number of users to create")
	f.IntVar(&seedOpts.PostsPerUser, "posts", seedOpts.PostsPerUser, "posts per user")
	f.IntVar(&seedOpts.CommentsPerPost, "comments", seedOpts.CommentsPerPost, "comments per post")
	f.IntVar(&seedOpts.Groups, "groups", seedOpts.Groups, "number of support groups")
	f.IntVar(&seedOpts.Resources, "resources", seedOpts.Resources, "number of resources")
	f.IntVar(&seedOpts.MessagesPerUser, "messages", seedOpts.MessagesPerUser, "direct messages sent per user")
	f.Int64Var(&seedOpts.Seed, "seed", 0, "random seed (0 picks one)")
	f.BoolVar(&seedClean, "clean", false, "delete existing data first")
}
