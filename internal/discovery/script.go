package discovery

// In-page programs. Each returns a JSON string so results cross the CDP
// boundary as one value, the same way the candidate collection scripts in
// large map scrapers do it.

// scanScript finds the best form candidate under the configured tier and
// returns it with a cached field map. CFG is replaced with a JSON object:
// {tier, strictSelectors, aggressiveSelectors, scanIframes, formPurpose}.
const scanScript = `(function (cfg) {
  function visible(el) {
    return !!(el && (el.offsetWidth || el.offsetHeight || el.getClientRects().length));
  }
  function q(s) { return s.replace(/["\\]/g, '\\$&'); }
  function pathOf(el) {
    if (el.id) return '#' + CSS.escape(el.id);
    var name = el.getAttribute && el.getAttribute('name');
    if (name) return el.tagName.toLowerCase() + '[name="' + q(name) + '"]';
    var path = [];
    var node = el;
    while (node && node.nodeType === 1 && node.tagName.toLowerCase() !== 'html') {
      var tag = node.tagName.toLowerCase();
      var idx = 1, sib = node;
      while ((sib = sib.previousElementSibling)) {
        if (sib.tagName === node.tagName) idx++;
      }
      path.unshift(tag + ':nth-of-type(' + idx + ')');
      if (node.id) { path[0] = '#' + CSS.escape(node.id); break; }
      node = node.parentElement;
    }
    return path.join(' > ');
  }
  function labelFor(root, el) {
    if (el.id) {
      var lab = root.querySelector('label[for="' + q(el.id) + '"]');
      if (lab) return lab.textContent.trim();
    }
    var wrap = el.closest ? el.closest('label') : null;
    return wrap ? wrap.textContent.trim() : '';
  }
  function fieldsOf(root, form) {
    var els = form.querySelectorAll('input, textarea, select');
    var names = [];
    els.forEach(function (e) { if (e.name) names.push(e.name.toLowerCase()); });
    var out = [];
    var i = 0;
    els.forEach(function (e) {
      var type = (e.getAttribute('type') || '').toLowerCase();
      if (type === 'hidden') return;
      out.push({
        selector: pathOf(e),
        required: e.required === true,
        options: e.tagName.toLowerCase() === 'select' ? e.options.length : 0,
        attrs: {
          id: e.id || '',
          name: e.name || '',
          class: (typeof e.className === 'string' ? e.className : '') || '',
          type: type,
          placeholder: e.getAttribute('placeholder') || '',
          label: labelFor(root, e),
          aria_label: e.getAttribute('aria-label') || '',
          tag: e.tagName.toLowerCase(),
          parent_class: e.parentElement ? ((typeof e.parentElement.className === 'string' ? e.parentElement.className : '') || '') : '',
          siblings: names,
          sibling_index: i,
          form_purpose: cfg.formPurpose || ''
        }
      });
      i++;
    });
    return out;
  }
  function hasEmail(form) { return !!form.querySelector('input[type="email"]'); }
  function emailish(form) {
    if (hasEmail(form)) return true;
    var ins = form.querySelectorAll('input');
    for (var i = 0; i < ins.length; i++) {
      var blob = ((ins[i].name || '') + (ins[i].id || '') + (ins[i].getAttribute('placeholder') || '')).toLowerCase();
      if (blob.indexOf('email') !== -1) return true;
    }
    return false;
  }
  function hasTextarea(form) { return !!form.querySelector('textarea'); }
  function submitOf(form) {
    var el = form.querySelector('button[type="submit"], input[type="submit"]');
    if (el) return pathOf(el);
    var words = ['submit', 'send', 'contact', 'message', 'continue'];
    var btns = form.querySelectorAll('button, input[type="button"], a[role="button"]');
    for (var i = 0; i < btns.length; i++) {
      var txt = ((btns[i].textContent || '') + ' ' + (btns[i].value || '')).toLowerCase();
      for (var j = 0; j < words.length; j++) {
        if (txt.indexOf(words[j]) !== -1) return pathOf(btns[i]);
      }
    }
    el = form.querySelector('[class*="submit"], [id*="submit"]');
    return el ? pathOf(el) : '';
  }
  function hasCaptcha(root) {
    return !!root.querySelector('.g-recaptcha, .h-captcha, iframe[src*="recaptcha"], iframe[src*="hcaptcha"], input[name="cf-turnstile-response"]');
  }
  function candidatesIn(root) {
    var set = [];
    function add(el) { if (el && set.indexOf(el) === -1) set.push(el); }
    cfg.strictSelectors.forEach(function (sel) {
      try { root.querySelectorAll(sel).forEach(add); } catch (e) {}
    });
    if (cfg.tier !== 'strict') {
      root.querySelectorAll('form').forEach(function (f) {
        if (emailish(f) || hasTextarea(f)) add(f);
      });
    }
    if (cfg.tier === 'aggressive') {
      cfg.aggressiveSelectors.forEach(function (sel) {
        try { root.querySelectorAll(sel).forEach(add); } catch (e) {}
      });
    }
    return set;
  }
  function wrap(root, rootExpr, f, ideal) {
    var fields = fieldsOf(root, f);
    var cls = ((typeof f.className === 'string' ? f.className : '') + ' ' + (f.id || '')).toLowerCase();
    var cf7 = cls.indexOf('wpcf7') !== -1;
    if (!cf7) {
      for (var i = 0; i < fields.length; i++) {
        if (fields[i].attrs.name.indexOf('your-') === 0) { cf7 = true; break; }
      }
    }
    return {
      found: true,
      ideal: ideal,
      cf7: cf7,
      selector: pathOf(f),
      root_expr: rootExpr,
      submit_selector: submitOf(f),
      captcha: hasCaptcha(root),
      fields: fields
    };
  }
  function pick(root, rootExpr) {
    var cands = candidatesIn(root);
    var fallback = null;
    for (var i = 0; i < cands.length; i++) {
      var f = cands[i];
      if (!visible(f)) continue;
      if (hasEmail(f) && hasTextarea(f)) return wrap(root, rootExpr, f, true);
      if (!fallback) fallback = f;
    }
    return fallback ? wrap(root, rootExpr, fallback, false) : null;
  }
  var res = pick(document, 'document');
  if (!res && cfg.scanIframes) {
    var frames = document.querySelectorAll('iframe');
    for (var i = 0; i < frames.length; i++) {
      try {
        var doc = frames[i].contentDocument;
        if (!doc) continue;
        res = pick(doc, "document.querySelector('" + pathOf(frames[i]) + "').contentDocument");
        if (res) break;
      } catch (e) {}
    }
  }
  return JSON.stringify(res || { found: false });
})(CFG)`

// linkScript collects distinct absolute contact-page links. CFG is a JSON
// array of lowercase keywords.
const linkScript = `(function (keywords) {
  var seen = {};
  var out = [];
  document.querySelectorAll('a[href]').forEach(function (a) {
    var href = a.href || '';
    var lower = href.toLowerCase();
    if (!href || lower.indexOf('mailto:') === 0 || lower.indexOf('tel:') === 0 || lower.indexOf('javascript:') === 0) return;
    var blob = ((a.textContent || '') + ' ' + href).toLowerCase();
    for (var i = 0; i < keywords.length; i++) {
      if (blob.indexOf(keywords[i]) !== -1) {
        if (!seen[href]) { seen[href] = true; out.push(href); }
        return;
      }
    }
  });
  return JSON.stringify(out.slice(0, 5));
})(CFG)`

// titleScript reads the lowercased document title for 404 detection.
const titleScript = `(document.title || '').toLowerCase()`

// revealScript clicks visible "contact" reveal controls and reports how many
// it clicked.
const revealScript = `(function () {
  function visible(el) {
    return !!(el && (el.offsetWidth || el.offsetHeight || el.getClientRects().length));
  }
  var clicked = 0;
  var nodes = document.querySelectorAll('button, a, [role="button"], [id*="contact"], [class*="contact"]');
  for (var i = 0; i < nodes.length && clicked < 3; i++) {
    var el = nodes[i];
    if (!visible(el)) continue;
    if (el.tagName.toLowerCase() === 'form' || el.querySelector('form')) continue;
    var blob = ((el.textContent || '') + ' ' + (el.id || '') + ' ' + (typeof el.className === 'string' ? el.className : '')).toLowerCase();
    if (blob.indexOf('contact') === -1) continue;
    try {
      el.scrollIntoView({ block: 'center' });
      el.click();
      clicked++;
    } catch (e) {}
  }
  return clicked;
})()`
