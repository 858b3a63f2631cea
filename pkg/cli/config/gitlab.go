package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"

	"github.com/m-mizutani/gitlab-telegram/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// GitLab holds GitLab webhook and routing configuration
type GitLab struct {
	SecretToken         string `masq:"secret"`
	ChatMapping         string
	ChatMappingFile     string
	PipelineBranch      string
	PipelineShowSuccess bool
}

// Flags returns CLI flags for GitLab configuration
func (c *GitLab) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gitlab-secret-token",
			Usage:       "Secret token GitLab sends in X-Gitlab-Token",
			Required:    true,
			Destination: &c.SecretToken,
			Sources:     cli.EnvVars("GITLAB_SECRET_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "gitlab-chat-mapping",
			Usage:       `JSON object of GitLab project id to Telegram chat, e.g. {"42":"@group","7":-100123}`,
			Destination: &c.ChatMapping,
			Sources:     cli.EnvVars("GITLAB_TELEGRAM_CHAT_MAPPING"),
		},
		&cli.StringFlag{
			Name:        "gitlab-chat-mapping-file",
			Usage:       "TOML file with a [chats] table of GitLab project id to Telegram chat",
			Destination: &c.ChatMappingFile,
			Sources:     cli.EnvVars("GITLAB_TELEGRAM_CHAT_MAPPING_FILE"),
		},
		&cli.StringFlag{
			Name:        "gitlab-pipeline-branch",
			Usage:       "Only notify pipelines of this branch",
			Destination: &c.PipelineBranch,
			Sources:     cli.EnvVars("GITLAB_PIPELINE_BRANCH_NAME"),
		},
		&cli.BoolFlag{
			Name:        "gitlab-pipeline-show-success",
			Usage:       "Notify successful pipelines too",
			Destination: &c.PipelineShowSuccess,
			Sources:     cli.EnvVars("GITLAB_PIPELINE_SHOW_SUCCESS"),
		},
	}
}

// RoutingTable builds the project to chat mapping from the mapping file and
// the JSON mapping. Entries of the JSON mapping take precedence.
func (c *GitLab) RoutingTable() (*model.RoutingTable, error) {
	if c.ChatMapping == "" && c.ChatMappingFile == "" {
		return nil, goerr.New("either gitlab-chat-mapping or gitlab-chat-mapping-file is required")
	}

	chats := make(map[int64]model.ChatID)

	if c.ChatMappingFile != "" {
		data, err := os.ReadFile(c.ChatMappingFile)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read chat mapping file", goerr.V("path", c.ChatMappingFile))
		}
		fromFile, err := ParseChatMappingTOML(data)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid chat mapping file", goerr.V("path", c.ChatMappingFile))
		}
		for k, v := range fromFile {
			chats[k] = v
		}
	}

	if c.ChatMapping != "" {
		fromJSON, err := ParseChatMappingJSON([]byte(c.ChatMapping))
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GITLAB_TELEGRAM_CHAT_MAPPING")
		}
		for k, v := range fromJSON {
			chats[k] = v
		}
	}

	return model.NewRoutingTable(chats), nil
}

// ParseChatMappingJSON parses {"<project id>": <chat>, ...}
func ParseChatMappingJSON(data []byte) (map[int64]model.ChatID, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, goerr.Wrap(err, "failed to decode chat mapping JSON")
	}
	return toChatMapping(raw)
}

type chatMappingFile struct {
	Chats map[string]any `toml:"chats"`
}

// ParseChatMappingTOML parses a document with a [chats] table:
//
//	[chats]
//	42 = "@group"
//	7 = -1001234567890
func ParseChatMappingTOML(data []byte) (map[int64]model.ChatID, error) {
	var file chatMappingFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to decode chat mapping TOML")
	}
	return toChatMapping(file.Chats)
}

// toChatMapping converts decoded entries. Keys that are not integers are
// skipped.
func toChatMapping(raw map[string]any) (map[int64]model.ChatID, error) {
	chats := make(map[int64]model.ChatID, len(raw))
	for key, value := range raw {
		projectID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}

		chat, err := model.ParseChatID(value)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid chat for project", goerr.V("project_id", key))
		}
		chats[projectID] = chat
	}
	return chats, nil
}
