package js

// CLICK dispatches a click from script so overlays and sticky headers on the
// FAQ pages cannot swallow it.
var CLICK string = `() => this.click()`

// IS_DETACHED reports whether the element was removed from the document,
// which is how a page change is detected after pagination.
var IS_DETACHED string = `() => !this.isConnected`

// IS_SHOWN is true when the element takes up space on the page. Collapsed
// accordion panels are display:none or zero height.
var IS_SHOWN string = `
() => {
    if (!this.isConnected) return false;
    var style = window.getComputedStyle(this);
    if (style.display === "none" || style.visibility === "hidden") return false;
    return this.offsetWidth > 0 && this.offsetHeight > 0;
}
`
