package htmldoc

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formpilot/formpilot/internal/engine"
	"github.com/formpilot/formpilot/internal/models"
)

const sampleForm = `
<html><body>
  <form>
    <input id="title" type="text">
    <input name="price" type="text">
    <textarea id="description"></textarea>
    <input name="terms" type="checkbox">
    <input name="condition" type="radio" value="used">
    <select name="country">
      <option value="us">United States</option>
      <option value="de">Germany</option>
      <option>Other</option>
    </select>
    <input id="user_email_4821" type="text">
    <div class="line"><input name="item"><input name="qty"></div>
    <div class="line"><input name="item"><input name="qty"></div>
    <button id="submit">Go</button>
  </form>
</body></html>`

func mustParse(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseString(sampleForm)
	require.NoError(t, err)
	return doc
}

func TestFindByKinds(t *testing.T) {
	doc := mustParse(t)

	t.Run("by id", func(t *testing.T) {
		el := doc.Find(models.MatchID, "title")
		require.NotNil(t, el)
		assert.Equal(t, engine.KindText, el.Kind())
	})

	t.Run("by name", func(t *testing.T) {
		el := doc.Find(models.MatchName, "price")
		require.NotNil(t, el)
	})

	t.Run("by query selector", func(t *testing.T) {
		el := doc.Find(models.MatchQuery, "select[name=country]")
		require.NotNil(t, el)
		assert.Equal(t, engine.KindSelect, el.Kind())
	})

	t.Run("missing element is nil", func(t *testing.T) {
		assert.Nil(t, doc.Find(models.MatchID, "nope"))
	})

	t.Run("invalid query selector is nil", func(t *testing.T) {
		assert.Nil(t, doc.Find(models.MatchQuery, "[[["))
	})
}

func TestElementKinds(t *testing.T) {
	doc := mustParse(t)

	assert.Equal(t, engine.KindCheckbox, doc.Find(models.MatchName, "terms").Kind())
	assert.Equal(t, engine.KindRadio, doc.Find(models.MatchName, "condition").Kind())
	assert.Equal(t, engine.KindSelect, doc.Find(models.MatchName, "country").Kind())
	assert.Equal(t, engine.KindText, doc.Find(models.MatchID, "description").Kind())
}

func TestFindByAttrPattern(t *testing.T) {
	doc := mustParse(t)

	el := doc.FindByAttrPattern("id", regexp.MustCompile(`^user_email_\d+$`))
	require.NotNil(t, el)

	assert.Nil(t, doc.FindByAttrPattern("id", regexp.MustCompile(`^unmatched_\d+$`)))
}

func TestSetValueMutatesTree(t *testing.T) {
	doc := mustParse(t)

	require.NoError(t, doc.Find(models.MatchID, "title").SetValue("Vintage lamp"))
	require.NoError(t, doc.Find(models.MatchID, "description").SetValue("Long text"))

	html, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, `value="Vintage lamp"`)
	assert.Contains(t, html, ">Long text</textarea>")

	writes := doc.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, "#title", writes[0].Target)
	assert.Equal(t, "Vintage lamp", writes[0].Value)
}

func TestSetChecked(t *testing.T) {
	doc := mustParse(t)
	el := doc.Find(models.MatchName, "terms")

	require.NoError(t, el.SetChecked(true))
	html, _ := doc.HTML()
	assert.Contains(t, html, `checked="checked"`)

	require.NoError(t, el.SetChecked(false))
	html, _ = doc.HTML()
	assert.NotContains(t, html, `checked="checked"`)
}

func TestSelectOptions(t *testing.T) {
	doc := mustParse(t)
	el := doc.Find(models.MatchName, "country")

	opts := el.Options()
	require.Len(t, opts, 3)
	assert.Equal(t, engine.Option{Value: "us", Label: "United States"}, opts[0])
	assert.Equal(t, engine.Option{Value: "Other", Label: "Other"}, opts[2], "valueless options use their label")

	require.NoError(t, el.SelectOption("de"))
	html, _ := doc.HTML()
	assert.Contains(t, html, `value="de" selected="selected"`)
}

func TestEventRecording(t *testing.T) {
	doc := mustParse(t)
	el := doc.Find(models.MatchID, "title")

	require.NoError(t, el.Fire(engine.EventInput))
	require.NoError(t, el.FireKey(engine.EventKeyDown, "Enter"))
	require.NoError(t, el.Click())

	events := doc.Events()
	require.Len(t, events, 3)
	assert.Equal(t, Event{Target: "#title", Name: "input"}, events[0])
	assert.Equal(t, Event{Target: "#title", Name: "keydown", Key: "Enter"}, events[1])
	assert.Equal(t, Event{Target: "#title", Name: "click"}, events[2])
}

func TestFocusTracksActiveElement(t *testing.T) {
	doc := mustParse(t)

	assert.Nil(t, doc.Active())

	el := doc.Find(models.MatchID, "title")
	require.NoError(t, el.Focus())
	require.NotNil(t, doc.Active())
}

func TestRootTarget(t *testing.T) {
	doc := mustParse(t)
	root := doc.Root()

	assert.Error(t, root.SetValue("x"))
	require.NoError(t, root.FireKey(engine.EventKeyUp, "Escape"))

	events := doc.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "document", events[0].Target)
}

func TestRows(t *testing.T) {
	doc := mustParse(t)

	scopes := doc.Rows(".line")
	require.Len(t, scopes, 2)

	first := scopes[0].Find(models.MatchName, "item")
	require.NotNil(t, first)
	require.NoError(t, first.SetValue("widget"))

	second := scopes[1].Find(models.MatchName, "item")
	require.NotNil(t, second)
	assert.Equal(t, "", second.Value(), "row scopes are independent")
}

func TestDescribeTargets(t *testing.T) {
	doc := mustParse(t)

	require.NoError(t, doc.Find(models.MatchName, "price").SetValue("9"))
	writes := doc.Writes()
	require.Len(t, writes, 1)
	assert.Equal(t, `input[name="price"]`, writes[0].Target)
}
