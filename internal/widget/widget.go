// Package widget renders the embeddable chat widget. Rendering is a pure function of
// the tenant config and the public base URL; no tenant logic lives here.
package widget

import (
	"bytes"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/zhouzirui/concierge/backend/internal/model/tenant"
)

// PublicConfig is the subset of a tenant the browser is allowed to see.
type PublicConfig struct {
	ID            string               `json:"id"`
	BusinessName  string               `json:"businessName"`
	Customization tenant.Customization `json:"customization"`
}

// Public strips everything but display data.
func Public(cfg tenant.Config) PublicConfig {
	return PublicConfig{
		ID:            cfg.ID,
		BusinessName:  cfg.BusinessName,
		Customization: cfg.Customization.WithDefaults(),
	}
}

// EmbedCode is the snippet a tenant pastes into their site.
func EmbedCode(baseURL, tenantID string) string {
	return fmt.Sprintf(`<script src="%s/widget/%s.js" async></script>`, baseURL, tenantID)
}

// PreviewURL is the standalone chat page for a tenant.
func PreviewURL(baseURL, tenantID string) string {
	return fmt.Sprintf("%s/chat/%s", baseURL, tenantID)
}

var embedScript = template.Must(template.New("embed").Parse(`(function () {
  if (window.__conciergeWidget_{{.Key}}) { return; }
  window.__conciergeWidget_{{.Key}} = true;
  var cfg = {{.ConfigJSON}};
  var button = document.createElement("button");
  button.setAttribute("aria-label", "Open chat");
  button.style.cssText = "position:fixed;bottom:20px;right:20px;width:56px;height:56px;border-radius:50%;border:none;cursor:pointer;z-index:2147483646;box-shadow:0 4px 12px rgba(0,0,0,.2);background:" + cfg.customization.primaryColor + ";color:#fff;font-size:24px";
  button.textContent = "\u{1F4AC}";
  var frame = document.createElement("iframe");
  frame.src = {{.ChatURL}};
  frame.title = cfg.businessName + " chat";
  frame.style.cssText = "position:fixed;bottom:90px;right:20px;width:370px;height:540px;max-width:calc(100vw - 40px);border:none;border-radius:12px;box-shadow:0 8px 24px rgba(0,0,0,.2);z-index:2147483647;display:none";
  button.addEventListener("click", function () {
    frame.style.display = frame.style.display === "none" ? "block" : "none";
  });
  document.body.appendChild(frame);
  document.body.appendChild(button);
})();
`))

// RenderEmbedScript renders the loader script served at /widget/{id}.js.
func RenderEmbedScript(baseURL string, cfg tenant.Config) ([]byte, error) {
	configJSON, err := json.Marshal(Public(cfg))
	if err != nil {
		return nil, err
	}
	chatURL, err := json.Marshal(PreviewURL(baseURL, cfg.ID))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = embedScript.Execute(&buf, map[string]any{
		"Key":        jsIdentifier(cfg.ID),
		"ConfigJSON": string(configJSON),
		"ChatURL":    string(chatURL),
	})
	if err != nil {
		return nil, fmt.Errorf("render embed script: %w", err)
	}
	return buf.Bytes(), nil
}

var chatPage = htmltemplate.Must(htmltemplate.New("chat").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Config.BusinessName}}</title>
<style>
  body { margin:0; font-family:system-ui,sans-serif; display:flex; flex-direction:column; height:100vh; }
  header { background:{{.Primary}}; color:#fff; padding:14px 16px; font-weight:600; }
  #log { flex:1; overflow-y:auto; padding:12px; background:#f7f7f8; }
  .msg { max-width:80%; margin:6px 0; padding:8px 12px; border-radius:12px; line-height:1.4; white-space:pre-wrap; }
  .user { margin-left:auto; background:{{.Accent}}; color:#fff; }
  .assistant { background:#fff; border:1px solid #e5e5e5; }
  form { display:flex; border-top:1px solid #e5e5e5; }
  input { flex:1; border:none; padding:14px; font-size:15px; outline:none; }
  button { border:none; background:{{.Primary}}; color:#fff; padding:0 18px; cursor:pointer; }
</style>
</head>
<body>
<header>{{.Config.BusinessName}}</header>
<div id="log"></div>
<form id="form"><input id="input" autocomplete="off" placeholder="Type a message..."><button type="submit">Send</button></form>
<script>
  var endpoint = {{.Endpoint}};
  var welcome = {{.Config.Customization.WelcomeMessage}};
  var key = "concierge-conversation-" + {{.Config.ID}};
  var conversationId = sessionStorage.getItem(key) || "";
  var log = document.getElementById("log");
  function add(role, text) {
    var el = document.createElement("div");
    el.className = "msg " + role;
    el.textContent = text;
    log.appendChild(el);
    log.scrollTop = log.scrollHeight;
  }
  add("assistant", welcome);
  document.getElementById("form").addEventListener("submit", function (e) {
    e.preventDefault();
    var input = document.getElementById("input");
    var text = input.value.trim();
    if (!text) { return; }
    input.value = "";
    add("user", text);
    fetch(endpoint, {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify({ message: text, conversationId: conversationId })
    }).then(function (r) { return r.json(); }).then(function (data) {
      if (data.conversationId) {
        conversationId = data.conversationId;
        sessionStorage.setItem(key, conversationId);
      }
      add("assistant", data.response || data.error || "");
    }).catch(function () {
      add("assistant", "Sorry, something went wrong. Please try again.");
    });
  });
</script>
</body>
</html>
`))

// RenderChatPage renders the iframe page served at /chat/{id}.
func RenderChatPage(baseURL string, cfg tenant.Config) ([]byte, error) {
	public := Public(cfg)
	accent := public.Customization.AccentColor
	if accent == "" {
		accent = public.Customization.PrimaryColor
	}

	var buf bytes.Buffer
	err := chatPage.Execute(&buf, map[string]any{
		"Config":   public,
		"Primary":  htmltemplate.CSS(cssColor(public.Customization.PrimaryColor)),
		"Accent":   htmltemplate.CSS(cssColor(accent)),
		"Endpoint": fmt.Sprintf("%s/api/chat/%s", baseURL, cfg.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("render chat page: %w", err)
	}
	return buf.Bytes(), nil
}

// cssColor only lets through characters that can appear in a CSS color value.
func cssColor(value string) string {
	out := make([]rune, 0, len(value))
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '#', r == '(', r == ')', r == ',', r == '.', r == '%', r == ' ':
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return tenant.DefaultPrimaryColor
	}
	return string(out)
}

func jsIdentifier(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			out = append(out, r)
		} else {
			out = append(out, '_')
		}
	}
	return string(out)
}
