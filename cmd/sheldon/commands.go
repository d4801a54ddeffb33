package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sheldon-client/pkg/sheldon"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the backend schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			s, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			return output(cmd, s.Raw(), func() {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "Node types:")
				for _, t := range s.NodeTypes() {
					fmt.Fprintf(out, "  %-24s %d\n", t, s.NodeCount(t))
				}
				fmt.Fprintln(out, "Connection types:")
				for _, t := range s.ConnectionTypes() {
					fmt.Fprintf(out, "  %-24s %s -> %s (%d)\n", t,
						strings.Join(s.Sources(t), ","), strings.Join(s.Targets(t), ","), s.ConnectionCount(t))
				}
			})
		},
	}
}

func newNodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Read and change nodes",
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			node, err := client.Node(cmd.Context(), id)
			if err != nil {
				return err
			}
			if node == nil {
				return fmt.Errorf("node %d not found", id)
			}
			return printNodes(cmd, node)
		},
	}

	create := &cobra.Command{
		Use:   "create <type>",
		Short: "Create a node",
		Long: `Create a node of a declared type.

Example:
  sheldon node create movie --payload '{"title":"Ran"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := payloadFlag(cmd)
			if err != nil {
				return err
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			node, err := client.CreateNode(cmd.Context(), sheldon.CreateNodeRequest{Type: args[0], Payload: payload})
			if err != nil {
				return err
			}
			if node == nil {
				return fmt.Errorf("backend did not create the %s node", args[0])
			}
			return printNodes(cmd, node)
		},
	}
	create.Flags().String("payload", "{}", "Node payload as a JSON object")

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the payload of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			payload, err := payloadFlag(cmd)
			if err != nil {
				return err
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			ok, err := client.UpdateNode(cmd.Context(), id, payload)
			if err != nil {
				return err
			}
			return printOutcome(cmd, "updated", id, ok)
		},
	}
	update.Flags().String("payload", "{}", "New payload as a JSON object")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			ok, err := client.DeleteNode(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printOutcome(cmd, "deleted", id, ok)
		},
	}

	reindex := &cobra.Command{
		Use:   "reindex <id>",
		Short: "Refresh the search index entries of a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			ok, err := client.ReindexNode(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printOutcome(cmd, "reindexed", id, ok)
		},
	}

	ids := &cobra.Command{
		Use:   "ids <type>",
		Short: "List the ids of all nodes of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			list, err := client.NodeIDs(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return output(cmd, list, func() {
				for _, id := range list {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
			})
		},
	}

	cmd.AddCommand(get, create, update, del, reindex, ids)
	return cmd
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [field=value ...]",
		Short: "Search nodes by field values",
		Long: `Search nodes by field values, optionally narrowed to one type.

Examples:
  sheldon search --type movie title=Ran
  sheldon search --mode fulltext title='matr*'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			nodeType, _ := cmd.Flags().GetString("type")
			mode, _ := cmd.Flags().GetString("mode")

			fields := make(map[string]any, len(args))
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid search field %q, expected field=value", arg)
				}
				fields[key] = value
			}

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			nodes, err := client.SearchNodes(cmd.Context(), sheldon.SearchQuery{
				Type:   nodeType,
				Fields: fields,
				Mode:   sheldon.SearchMode(mode),
			})
			if err != nil {
				return err
			}
			return printNodes(cmd, nodes...)
		},
	}
	cmd.Flags().String("type", "", "Node type to search")
	cmd.Flags().String("mode", "", "Search mode: exact or fulltext")
	return cmd
}

func newConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect <from> <type> <to>",
		Short: "Create a connection between two nodes",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseID(args[0])
			if err != nil {
				return err
			}
			to, err := parseID(args[2])
			if err != nil {
				return err
			}
			payload, err := payloadFlag(cmd)
			if err != nil {
				return err
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			conn, err := client.CreateConnection(cmd.Context(), sheldon.CreateConnectionRequest{
				Type: args[1], From: from, To: to, Payload: payload,
			})
			if err != nil {
				return err
			}
			if conn == nil {
				return fmt.Errorf("backend did not create the %s connection", args[1])
			}
			return printConnections(cmd, conn)
		},
	}
	cmd.Flags().String("payload", "{}", "Connection payload as a JSON object")
	return cmd
}

func newConnectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connections <id> <type>",
		Short: "List the outgoing connections of a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			conns, err := client.Connections(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			return printConnections(cmd, conns...)
		},
	}
}

func newNeighboursCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "neighbours <id>",
		Short: "List the nodes connected to a node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			connectionType, _ := cmd.Flags().GetString("type")
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			nodes, err := client.Neighbours(cmd.Context(), id, connectionType)
			if err != nil {
				return err
			}
			return printNodes(cmd, nodes...)
		},
	}
	cmd.Flags().String("type", "", "Only follow connections of this type")
	return cmd
}

func newHighscoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "highscores <user>",
		Short: "List a user's connections by descending weight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			kind, _ := cmd.Flags().GetString("kind")
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			conns, err := client.HighscoreConnections(cmd.Context(), id, sheldon.ScoreKind(kind))
			if err != nil {
				return err
			}
			return printConnections(cmd, conns...)
		},
	}
	cmd.Flags().String("kind", "", "tracked or untracked; all when empty")
	return cmd
}

func newRecommendationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recommendations <user>",
		Short: "Show container recommendations for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			raw, err := client.Recommendations(cmd.Context(), id)
			if err != nil {
				return err
			}
			// the list has no domain mapping, so text output is JSON too
			return writeJSON(cmd, raw)
		},
	}
}

func parseID(arg string) (sheldon.ID, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return sheldon.ID(id), nil
}

func payloadFlag(cmd *cobra.Command) (sheldon.Payload, error) {
	raw, _ := cmd.Flags().GetString("payload")
	payload := sheldon.Payload{}
	if strings.TrimSpace(raw) == "" {
		return payload, nil
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return payload, nil
}

// output writes v as JSON when --json is set and runs text otherwise
func output(cmd *cobra.Command, v any, text func()) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		return writeJSON(cmd, v)
	}
	text()
	return nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printNodes(cmd *cobra.Command, nodes ...*sheldon.Node) error {
	docs := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		docs = append(docs, map[string]any{"id": n.ID(), "type": n.Type(), "payload": n.Payload()})
	}
	return output(cmd, docs, func() {
		for _, n := range nodes {
			fmt.Fprintln(cmd.OutOrStdout(), n.String())
		}
	})
}

func printConnections(cmd *cobra.Command, conns ...*sheldon.Connection) error {
	docs := make([]map[string]any, 0, len(conns))
	for _, c := range conns {
		docs = append(docs, map[string]any{
			"id": c.ID(), "type": c.Type(), "from": c.FromID(), "to": c.ToID(), "payload": c.Payload(),
		})
	}
	return output(cmd, docs, func() {
		for _, c := range conns {
			fmt.Fprintln(cmd.OutOrStdout(), c.String())
		}
	})
}

func printOutcome(cmd *cobra.Command, action string, id sheldon.ID, ok bool) error {
	if err := output(cmd, map[string]any{"id": id, action: ok}, func() {
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "node %d %s\n", id, action)
		}
	}); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("node %d was not %s", id, action)
	}
	return nil
}
