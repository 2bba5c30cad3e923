package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"promo-data/internal/config"
)

// TicketLookup 按工单号查报告人（脚本头部的 "Requested by"）
type TicketLookup interface {
	Reporter(ctx context.Context, ticket string) (string, error)
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary  string    `json:"summary"`
		Reporter *jiraUser `json:"reporter"`
	} `json:"fields"`
}

type jiraUser struct {
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// JiraClient Jira REST API 客户端（只读）
type JiraClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewJiraClient 创建 Jira 客户端
func NewJiraClient(cfg config.JiraConfig, logger *zap.Logger) *JiraClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")
	if cfg.User != "" {
		client.SetBasicAuth(cfg.User, cfg.Token)
	} else if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JiraClient{httpClient: client, logger: logger}
}

var _ TicketLookup = (*JiraClient)(nil)

// Reporter 返回工单报告人显示名
func (c *JiraClient) Reporter(ctx context.Context, ticket string) (string, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return "", fmt.Errorf("empty ticket id")
	}

	var issue jiraIssue
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("key", ticket).
		SetQueryParam("fields", "reporter,summary").
		SetResult(&issue).
		Get("/rest/api/2/issue/{key}")
	if err != nil {
		c.logger.Warn("Jira API call failed", zap.String("ticket", ticket), zap.Error(err))
		return "", fmt.Errorf("failed to call Jira API: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("Jira API error: ticket %s (status: %d)", ticket, resp.StatusCode())
	}
	if issue.Fields.Reporter == nil || issue.Fields.Reporter.DisplayName == "" {
		return "", fmt.Errorf("ticket %s has no reporter", ticket)
	}
	return issue.Fields.Reporter.DisplayName, nil
}
