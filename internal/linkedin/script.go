package linkedin

// Page scripts. LinkedIn's markup shifts between rollouts, so each script
// tries the couple of DOM shapes seen in the wild and degrades to null.

const loggedInScript = `(function() {
  return !!(document.querySelector('#global-nav') ||
            document.querySelector('.global-nav__me') ||
            document.querySelector('[data-control-name="nav.settings"]'));
})()`

const tilesScript = `(function() {
  var out = [];
  var tiles = document.querySelectorAll(
    'li.reusable-search__result-container, [data-view-name="search-entity-result-universal-template"], li.search-result');
  for (var i = 0; i < tiles.length && out.length < 10; i++) {
    var t = tiles[i];
    var link = t.querySelector('a[href*="/in/"]');
    if (!link) continue;
    var name = '';
    var nameEl = t.querySelector('span[dir="ltr"] > span[aria-hidden="true"], .entity-result__title-text span[aria-hidden="true"], .actor-name');
    if (nameEl) name = nameEl.textContent.trim();
    var subtitle = '';
    var subEl = t.querySelector('.entity-result__primary-subtitle, .subline-level-1, [class*="primary-subtitle"]');
    if (subEl) subtitle = subEl.textContent.trim();
    var location = '';
    var locEl = t.querySelector('.entity-result__secondary-subtitle, .subline-level-2, [class*="secondary-subtitle"]');
    if (locEl) location = locEl.textContent.trim();
    var url = link.href.split('?')[0];
    if (name) out.push({name: name, subtitle: subtitle, location: location, url: url});
  }
  return JSON.stringify(out);
})()`

// clickActionScript clicks the first visible profile action button whose
// aria-label or text contains LABEL (case-insensitive). Returns whether it
// clicked anything.
const clickActionScript = `(function() {
  var label = LABEL;
  var buttons = document.querySelectorAll('main button, main a.artdeco-button, .artdeco-modal button, .artdeco-dropdown__content div[role="button"]');
  for (var i = 0; i < buttons.length; i++) {
    var b = buttons[i];
    if (!b.offsetParent) continue;
    var text = ((b.getAttribute('aria-label') || '') + ' ' + (b.textContent || '')).toLowerCase();
    if (text.indexOf(label) === -1) continue;
    b.scrollIntoView({block: 'center'});
    b.click();
    return true;
  }
  return false;
})()`

// composerOpenScript reports whether the message composer is on screen.
const composerOpenScript = `(function() {
  return !!document.querySelector('div.msg-form__contenteditable, .msg-overlay-conversation-bubble');
})()`

// typeNoteScript fills the connect-request note textarea. Returns whether
// the textarea was present.
const typeNoteScript = `(function() {
  var ta = document.querySelector('textarea#custom-message, textarea[name="message"]');
  if (!ta) return false;
  var setter = Object.getOwnPropertyDescriptor(window.HTMLTextAreaElement.prototype, 'value').set;
  setter.call(ta, NOTE);
  ta.dispatchEvent(new Event('input', {bubbles: true}));
  return true;
})()`

// typeMessageScript fills the contenteditable message composer.
const typeMessageScript = `(function() {
  var box = document.querySelector('div.msg-form__contenteditable');
  if (!box) return false;
  box.focus();
  box.innerHTML = '<p>' + NOTE.replace(/&/g,'&amp;').replace(/</g,'&lt;') + '</p>';
  box.dispatchEvent(new Event('input', {bubbles: true}));
  return true;
})()`
