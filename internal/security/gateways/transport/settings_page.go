package transport

import (
	"fmt"

	"github.com/osteele/liquid"
)

const settingsPageSource = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{ title }}</title></head>
<body>
<div class="wrap">
  <h1>{{ title }}</h1>
  {% if saved %}<div class="notice notice-success"><p>Settings saved.</p></div>{% endif %}
  <form method="post" action="/settings">
    <h2>CD Security Settings</h2>
    <p>Manage settings for CD Security plugin.</p>
    <table class="form-table">
      <tr>
        <th scope="row">Enable Automatic Updates</th>
        <td><input type="checkbox" name="{{ field }}" value="1"{% if auto_update %} checked="checked"{% endif %} /></td>
      </tr>
    </table>
    <p class="submit"><input type="submit" class="button button-primary" value="Save Changes" /></p>
  </form>
</div>
</body>
</html>
`

// autoUpdateField is the form field (and option name) of the single setting.
const autoUpdateField = "cd_security_auto_update"

// settingsPage renders the admin settings screen.
type settingsPage struct {
	tpl *liquid.Template
}

func newSettingsPage() (*settingsPage, error) {
	tpl, err := liquid.NewEngine().ParseString(settingsPageSource)
	if err != nil {
		return nil, fmt.Errorf("parse settings page: %w", err)
	}
	return &settingsPage{tpl: tpl}, nil
}

func (p *settingsPage) render(autoUpdate, saved bool) (string, error) {
	out, err := p.tpl.RenderString(map[string]any{
		"title":       "CD Security",
		"field":       autoUpdateField,
		"auto_update": autoUpdate,
		"saved":       saved,
	})
	if err != nil {
		return "", fmt.Errorf("render settings page: %w", err)
	}
	return out, nil
}
