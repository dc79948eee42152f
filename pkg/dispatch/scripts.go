package dispatch

// Client-side finder scripts for reactive framework pages. Every script
// takes (value, flag, rootSelector) and returns an array of elements.
// Attribute prefixes cover every spelling the framework accepts.

const scriptPrelude = `
var root = (arguments[2] && document.querySelector(arguments[2])) || document;
var prefixes = ['ng-', 'ng_', 'data-ng-', 'x-ng-', 'ng\\:'];
`

const findByModelScript = scriptPrelude + `
var model = arguments[0];
for (var p = 0; p < prefixes.length; ++p) {
  var found = root.querySelectorAll('[' + prefixes[p] + 'model="' + model + '"]');
  if (found.length) {
    return Array.prototype.slice.call(found);
  }
}
return [];
`

const findBindingsScript = scriptPrelude + `
var binding = arguments[0], exact = arguments[1];
var bindings = root.getElementsByClassName('ng-binding');
var matches = [];
for (var i = 0; i < bindings.length; ++i) {
  var data = window.angular ? window.angular.element(bindings[i]).data('$binding') : null;
  if (!data) {
    continue;
  }
  var name = data.exp || (data[0] && data[0].exp) || data;
  if (exact) {
    var escaped = binding.replace(/[\-\[\]\/\{\}\(\)\*\+\?\.\\\^\$\|]/g, '\\$&');
    if (new RegExp('({|\\s|^|\\|)' + escaped + '(}|\\s|$|\\|)').test(name)) {
      matches.push(bindings[i]);
    }
  } else if (String(name).indexOf(binding) !== -1) {
    matches.push(bindings[i]);
  }
}
return matches;
`

const findByButtonTextScript = scriptPrelude + `
var searchText = arguments[0], partial = arguments[1];
var elements = root.querySelectorAll('button, input[type="button"], input[type="submit"]');
var matches = [];
for (var i = 0; i < elements.length; ++i) {
  var el = elements[i];
  var text = el.nodeName.toLowerCase() === 'button' ? (el.textContent || el.innerText || '') : (el.value || '');
  text = text.trim();
  if (partial ? text.indexOf(searchText) > -1 : text === searchText) {
    matches.push(el);
  }
}
return matches;
`

const findRepeaterRowsScript = scriptPrelude + `
var repeater = arguments[0], exact = arguments[1];
function repeaterMatch(ngRepeat, wanted) {
  if (exact) {
    return ngRepeat.split(' track by ')[0].split(' as ')[0].split('|')[0].split('=')[0].trim() === wanted;
  }
  return ngRepeat.indexOf(wanted) !== -1;
}
var rows = [];
for (var p = 0; p < prefixes.length; ++p) {
  var attr = prefixes[p] + 'repeat';
  var found = root.querySelectorAll('[' + attr + ']');
  attr = attr.replace(/\\/g, '');
  for (var i = 0; i < found.length; ++i) {
    if (repeaterMatch(found[i].getAttribute(attr), repeater)) {
      rows.push(found[i]);
    }
  }
}
return rows;
`

const findByOptionsScript = scriptPrelude + `
var options = arguments[0];
for (var p = 0; p < prefixes.length; ++p) {
  var found = root.querySelectorAll('[' + prefixes[p] + 'options="' + options + '"] option');
  if (found.length) {
    return Array.prototype.slice.call(found);
  }
}
return [];
`

// waitForRequestsScript completes once the framework has no outstanding
// requests. The callback receives null on success or an error message.
const waitForRequestsScript = `
var callback = arguments[arguments.length - 1];
try {
  var rootEl = (arguments[0] && document.querySelector(arguments[0])) || document.body;
  if (window.angular && window.angular.element) {
    var injector = window.angular.element(rootEl).injector();
    if (injector) {
      injector.get('$browser').notifyWhenNoOutstandingRequests(function() { callback(null); });
      return;
    }
  }
  if (window.getAllAngularTestabilities) {
    var all = window.getAllAngularTestabilities();
    var count = all.length;
    if (!count) {
      callback(null);
      return;
    }
    all.forEach(function(t) {
      t.whenStable(function() {
        if (--count === 0) {
          callback(null);
        }
      });
    });
    return;
  }
  callback(null);
} catch (e) {
  callback(String(e));
}
`
