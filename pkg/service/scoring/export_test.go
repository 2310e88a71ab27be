package scoring

var UpstreamDetail = upstreamDetail
